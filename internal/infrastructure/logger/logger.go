package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ruleout-server/internal/config"
)

// New creates the service logger. Production defaults to JSON output.
func New(cfg *config.Config) zerolog.Logger {
	return build(os.Stdout, cfg)
}

func build(out io.Writer, cfg *config.Config) zerolog.Logger {
	var writer io.Writer = out
	format := strings.ToLower(cfg.LogFormat)
	if format != "json" && !cfg.IsProduction() {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(writer).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger().
		Level(parseLevel(cfg.LogLevel))
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
