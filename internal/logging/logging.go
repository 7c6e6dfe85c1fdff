// Package logging wires the engine's zerolog setup: a console writer in
// development, structured JSON in production, level from config.
//
// Grounded on polybot/cmd/polybot's main.go logging bootstrap: same
// zerolog.ConsoleWriter{Out: os.Stderr} + zerolog.SetGlobalLevel shape,
// wrapped as a reusable Setup instead of inlined in main.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger and returns a
// component-scoped logger for the caller.
func Setup(level string, pretty bool) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(level))

	var out zerolog.Logger
	if pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	} else {
		out = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	log.Logger = out
	return out
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "trace":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}

// For scopes a logger to one engine component, e.g. For("matching").
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
