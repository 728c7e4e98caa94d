// Package logging builds the process logger from config.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gnssrx/internal/config"
)

// New returns a logger writing to stderr and installs it as the zerolog
// global logger.
func New(cfg config.LogConfig) zerolog.Logger {
	logger := NewWriter(os.Stderr, cfg)
	log.Logger = logger
	return logger
}

// NewWriter builds a logger on out. Unknown levels fall back to info.
func NewWriter(out io.Writer, cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	w := out
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("app", "gnssrx").Logger()
}
