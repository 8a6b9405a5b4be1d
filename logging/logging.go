// Package logging builds the slog loggers used by the feedgen binaries.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps a slog.Logger together with the level it was built with so
// the level can be adjusted at runtime.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// New creates a logger writing to w. format is "text" (default) or "json".
// A nil writer means stderr.
func New(w io.Writer, level, format string) *Logger {
	if w == nil {
		w = os.Stderr
	}

	lvl := new(slog.LevelVar)
	lvl.Set(ParseLevel(level))

	opts := &slog.HandlerOptions{
		Level: lvl,
	}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		level:  lvl,
	}
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel changes the minimum level of the logger and all loggers derived
// from it.
func (l *Logger) SetLevel(level string) {
	l.level.Set(ParseLevel(level))
}

// Install makes the logger the process-wide slog default.
func (l *Logger) Install() {
	slog.SetDefault(l.Logger)
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
