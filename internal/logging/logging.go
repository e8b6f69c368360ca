// Package logging adapts the engine's structured logging to whatever
// *slog.Logger the embedding caller wants. Unlike a driver program, a
// library has no business installing a process-wide default logger, so
// this package hands out a safe no-op logger rather than reaching for
// slog.Default via a global Init call.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Nop returns a logger that discards everything, used when a caller
// constructs a Store without providing one of their own.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps the level names a caller is likely to pass through
// config (debug, info, warn, error) to a slog.Level, defaulting to Info
// for anything unrecognized.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// WithComponent returns a child logger tagged with a "component" field,
// the convention the engine uses to distinguish planner, applier, and
// persistence log lines without needing separate loggers per package.
func WithComponent(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = Nop()
	}
	return l.With("component", name)
}
