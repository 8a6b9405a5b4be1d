package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseLevel verifies level names and the info fallback
func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for input, expected := range tests {
		assert.Equal(t, expected, ParseLevel(input), "input %q", input)
	}
}

// TestNew_TextFiltersByLevel verifies messages below the level are dropped
func TestNew_TextFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "text")

	logger.Info("hidden")
	logger.Warn("shown", "feed", "https://x.example.com/")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "feed=https://x.example.com/")
}

// TestNew_JSON verifies the JSON handler output
func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")

	logger.Info("sweep complete", "checked", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sweep complete", entry["msg"])
	assert.Equal(t, float64(3), entry["checked"])
}

// TestSetLevel verifies runtime level changes apply to derived loggers
func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "text")
	child := logger.With("component", "watcher")

	child.Debug("before")
	logger.SetLevel("debug")
	child.Debug("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "after")
}
