// Package logger provides structured logging setup for Warden.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/Strob0t/Warden/internal/config"
)

// New creates a *slog.Logger from the given Logging config. Output is
// JSON to stdout with a "service" attribute on every record. When
// cfg.Async is set, records are handed off to a background worker; the
// returned Closer flushes it on shutdown and is a no-op otherwise.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})

	closer := Closer(nopCloser{})
	if cfg.Async {
		async := NewAsyncHandler(handler, 1024, 1)
		handler = async
		closer = async
	}

	return slog.New(handler).With("service", cfg.Service), closer
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
