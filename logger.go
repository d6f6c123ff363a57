package blobhash

import (
	"log/slog"
	"os"
)

// NewTextLogger creates a logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewJSONLogger creates a logger that writes JSON records to stderr.
func NewJSONLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// ParseLogLevel maps "debug", "info", "warn" and "error" to a level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(s))
	return level, err
}

func nopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
