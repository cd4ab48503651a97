package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/edvin/devlxc/internal/config"
)

// NewLogger creates a structured zerolog.Logger writing to stderr, with the
// cluster name attached when set. LOG_FORMAT=console selects the human
// readable writer.
func NewLogger(cfg *config.Config) zerolog.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	if cfg.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: w != os.Stderr}
	}

	ctx := zerolog.New(w).With().Timestamp().Str("service", "dev-lxc")

	if cfg.ClusterName != "" {
		ctx = ctx.Str("cluster", cfg.ClusterName)
	}

	logger := ctx.Logger()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	return logger.Level(level)
}
