package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	cfg := Config{Level: "info", Format: "text"}
	assert.NotNil(t, New(cfg))

	cfg.Format = "json"
	assert.NotNil(t, New(cfg))

	// unknown levels fall back to info
	cfg.Level = "invalid"
	assert.NotNil(t, New(cfg))
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: "info", Format: "json"})
	logger.WithComponent("worker").Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log line: %q", buf.String())
	assert.Equal(t, "worker", entry["component"])
}

func TestWithItem(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: "info", Format: "text"})
	logger.WithItem("item-123", "community").Info("processing")

	out := buf.String()
	assert.Contains(t, out, "item_id=item-123")
	assert.Contains(t, out, "item_kind=community")
}

func TestWithBook(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: "info", Format: "text"})
	logger.WithBook(42, "1003354").Info("refreshing")

	out := buf.String()
	assert.Contains(t, out, "book_id=42")
	assert.Contains(t, out, "subject_id=1003354")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: "warn", Format: "text"})
	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestDefaultAndDiscard(t *testing.T) {
	assert.NotNil(t, Default())
	assert.NotNil(t, Discard())
}
