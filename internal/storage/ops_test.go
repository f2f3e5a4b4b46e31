package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"0123abcd.png", true},
		{"cover.jpg", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../etc/passwd", false},
		{"a/b.png", false},
		{`a\b.png`, false},
		{"a..b.png", false},
		{"/abs.png", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SafeName(tt.input), "SafeName(%q)", tt.input)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.png")

	require.NoError(t, WriteFileAtomic(path, []byte("first")))
	require.NoError(t, WriteFileAtomic(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "file.png")
	assert.Error(t, WriteFileAtomic(path, []byte("x")))
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	dst := filepath.Join(dir, "b.png")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	require.NoError(t, MoveFile(src, dst))
	assert.False(t, Exists(src))
	assert.True(t, Exists(dst))

	err := MoveFile(src, dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to move")
}

func TestExistsAndRemoveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.jpg")
	assert.False(t, Exists(path))

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	assert.True(t, Exists(path))
	assert.False(t, Exists(dir), "a directory is not a cached file")

	require.NoError(t, RemoveFile(path))
	_, err := os.Stat(path)
	assert.True(t, IsNotExist(err))

	assert.NoError(t, RemoveFile(path), "removing a missing file is not an error")
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
