package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"serve", "sweep", "refresh"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestSweepCommandWithEmptyLibrary(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DB_PATH", filepath.Join(dir, "test.db"))
	t.Setenv("CACHE_DIR", filepath.Join(dir, "covers"))
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"sweep"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Candidates: 0")
}

func TestRefreshCommandRequiresKey(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DB_PATH", filepath.Join(dir, "test.db"))
	t.Setenv("CACHE_DIR", filepath.Join(dir, "covers"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LLM_API_KEY", "")

	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"refresh"})
	err := root.Execute()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "disabled"))
}

func TestInvalidConfigurationFails(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	root := newRootCommand()
	root.SetArgs([]string{"sweep"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}
