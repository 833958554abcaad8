package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds configuration for creating loggers
type Config struct {
	Format string     // "json" or "text"
	Level  slog.Level // Log level
	Output io.Writer  // defaults to stderr
}

// NewLogger creates a new slog.Logger. Output goes to stderr unless set, so
// command output on stdout stays machine readable.
func NewLogger(config Config) *slog.Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: config.Level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
			}
			return a
		},
	}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

// ParseLevel converts a string log level to slog.Level
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
