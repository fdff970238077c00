package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies mr_id and request_id from the event context into log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if id := GetMRID(ctx); id != "" {
		e.Str("mr_id", id)
	}

	if id := GetRequestID(ctx); id != "" {
		e.Str("request_id", id)
	}
}
