// Package logging builds the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger for env.  Development gets human-readable console
// output at debug level; every other environment gets JSON at info level.
// LOG_LEVEL overrides the level in both cases.
func New(env string) *zerolog.Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(env string, w io.Writer) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	out := w
	if isDev(env) {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	if lv, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL"))); err == nil && lv != zerolog.NoLevel {
		level = lv
	}

	l := zerolog.New(out).Level(level).With().Timestamp().Str("env", env).Logger()
	return &l
}

// Nop returns a disabled logger, handy in tests.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "", "dev", "development", "local":
		return true
	}
	return false
}
