package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/agentx-labs/tailor/internal/config"
)

// newLogger returns a text logger for diagnostics. --verbose forces debug;
// otherwise the log_level setting applies.
func newLogger(w io.Writer) *slog.Logger {
	level := parseLevel(config.Get(config.KeyLogLevel))
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
