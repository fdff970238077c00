package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// ForMR returns a component logger that also carries the merge request ID.
func ForMR(name, id string) zerolog.Logger {
	return log.With().Str("cmp", name).Str("mr_id", id).Logger()
}
