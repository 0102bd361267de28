// Package log configures slog for the binaries. Each process sets a default
// logger once at startup; packages log through log/slog directly.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs a text handler on stdout as the process-wide default logger
// and returns it tagged with the service name. The level comes from LOG_LEVEL
// (debug, info, warn, error), defaulting to info.
func Setup(service string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})
	logger := slog.New(handler).With("service", service)
	slog.SetDefault(logger)
	return logger
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
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
