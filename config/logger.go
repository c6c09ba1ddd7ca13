package config

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process logger. Production writes JSON, everything else text.
// LOG_LEVEL accepts any slog level name (debug, info, warn, error), case-insensitive;
// unknown values mean info. Debug level also records the call site.
func NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(os.Getenv("LOG_LEVEL")))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}

	var handler slog.Handler
	if os.Getenv("GO_ENV") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With("service", "eventregistry")
}
