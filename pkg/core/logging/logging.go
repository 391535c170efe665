// Package logging centralises zerolog setup so every component logs with
// the same field conventions (tenant, scope, component).
package logging

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	base     zerolog.Logger
	initOnce sync.Once
)

func root() zerolog.Logger {
	initOnce.Do(func() {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	})
	return base
}

// For returns a logger tagged with the given component name, the
// convention every package in this module follows when it needs to log.
func For(component string) zerolog.Logger {
	return root().With().Str("component", component).Logger()
}

// SetLevel adjusts the global minimum level (e.g. for quieter test runs).
func SetLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}
