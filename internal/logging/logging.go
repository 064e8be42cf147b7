// Package logging wires the core's structured logging (SPEC_FULL.md
// AMBIENT STACK: "rs/zerolog throughout the core... structured fields
// (object_uuid, module, rule, duration_ms) rather than fmt.Printf"),
// mirroring bearer's output package without reaching for its terminal
// color/report layer, which is out of scope here.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. levelName is one of zerolog's
// level strings ("debug", "info", "warn", "error"); an unrecognized or
// empty value falls back to "info". pretty selects a human-readable
// console writer (local development) over the default structured JSON
// writer (production).
func Init(levelName string, pretty bool) {
	level, err := zerolog.ParseLevel(strings.ToLower(levelName))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var w io.Writer = os.Stderr
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	log.Logger = logger
}
