// Package logger provides slog loggers with level-colored console output.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// NewDefaultLogger creates a new logger with color support for errors and
// warnings, writing to stderr.
func NewDefaultLogger(level slog.Level) *slog.Logger {
	return slog.New(NewColorHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewLogger creates a new logger with color support using a custom writer.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewColorHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
