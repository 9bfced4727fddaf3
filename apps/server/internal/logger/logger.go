// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
)

type Config struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

// New builds a logger writing to w.
func New(cfg Config, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Init installs a stdout logger as the slog default.
func Init(cfg Config) {
	slog.SetDefault(New(cfg, os.Stdout))
}

// Component returns the default logger tagged with a component name, e.g.
// "table" or "gateway".
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}
