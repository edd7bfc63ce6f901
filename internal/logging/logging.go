package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New creates the process-wide text logger at the given level. Unknown or
// empty level strings fall back to info.
func New(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

// Component derives a child logger tagged with the wired component's name so
// pipeline, scraper, and HTTP log lines stay distinguishable.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = New("")
	}
	return logger.With("component", name)
}

func parseLevel(value string) slog.Level {
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
