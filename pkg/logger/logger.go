package logger

import (
	"io"
	"log/slog"
	"os"

	"orgchart-backend/pkg/config"
)

// New returns a slog.Logger for the service: JSON in production, text elsewhere.
func New(service string, cfg *config.Config) *slog.Logger {
	return NewWithWriter(os.Stdout, service, cfg)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, service string, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg != nil && cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg != nil && cfg.IsProduction() {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("service", service)
}

// Discard returns a logger that drops everything; used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
