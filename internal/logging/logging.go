// Package logging configures the structured logger shared by the console.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a zerolog logger writing to w at the given level.
// Unknown levels fall back to info. pretty switches to human-readable console output.
func New(w io.Writer, level string, pretty bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "egresados-admin").Logger()
}

// Nop returns a logger that discards everything; used by tests and optional wiring.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
