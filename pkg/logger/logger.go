package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/blog-articles-api/internal/config"
	"github.com/rs/zerolog"
)

// ServiceName is attached to every log line
const ServiceName = "blog-articles-api"

// New creates a new zerolog logger with structured output
func New(cfg config.LogConfig) zerolog.Logger {
	return newWithWriter(cfg, os.Stdout)
}

func newWithWriter(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	// Human readable output for local development
	if cfg.Format == "pretty" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(ParseLevel(cfg.Level)).
			With().
			Timestamp().
			Caller().
			Str("service", ServiceName).
			Logger()
	}

	// JSON output for production
	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", ServiceName).
		Logger()
}

// ParseLevel maps a LOG_LEVEL value to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
