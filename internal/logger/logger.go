package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/weedwatch/weedwatch/internal/config"
)

// New builds the process logger. Outside production it defaults to the
// human-readable console writer; production defaults to JSON on stdout.
func New(cfg *config.ObservabilityConfig) zerolog.Logger {
	return NewWithWriter(cfg, nil)
}

// NewWithWriter is New with an explicit sink. A nil out selects stdout/stderr.
func NewWithWriter(cfg *config.ObservabilityConfig, out io.Writer) zerolog.Logger {
	if cfg == nil {
		cfg = config.DefaultObservabilityConfig()
	}

	format := cfg.Logging.Format
	if format == "" {
		format = "json"
		if !cfg.IsProduction() {
			format = "console"
		}
	}

	var w io.Writer
	switch format {
	case "console":
		if out == nil {
			out = os.Stderr
		}
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	default:
		if out == nil {
			out = os.Stdout
		}
		w = out
	}

	return zerolog.New(w).
		Level(cfg.GetLogLevel()).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("env", cfg.Environment).
		Logger()
}
