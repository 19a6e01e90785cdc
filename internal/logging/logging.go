package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup creates a text *slog.Logger on stderr, sets it as the default and
// returns it. Unknown levels fall back to info.
func Setup(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps "debug", "info", "warn" and "error" (any case) to a
// slog.Level.
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
