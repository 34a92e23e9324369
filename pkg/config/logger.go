package config

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. Development gets a console writer,
// production gets JSON lines, unless LogFormat says otherwise.
func (c Config) NewLogger(out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	format := c.LogFormat
	if format == "" {
		format = "console"
		if c.IsProduction() {
			format = "json"
		}
	}
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "churnboard").Logger()
}
