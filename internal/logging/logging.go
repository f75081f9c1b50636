package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New creates the service-wide slog.Logger at the configured level,
// writing to stderr so the event stream on stdout stays clean.
func New(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler)
}

// levelFromString maps the config string to a slog level; unknown values
// fall back to info, matching the config default.
func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
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
