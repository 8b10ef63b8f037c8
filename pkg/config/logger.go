package config

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger: JSON in production, text elsewhere
func NewLogger(level, environment string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
