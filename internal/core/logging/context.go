package logging

import "context"

type contextKey string

const (
	mrIDKey      contextKey = "mr_id"
	requestIDKey contextKey = "request_id"
)

// WithMRID adds a merge request ID to the context.
func WithMRID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, mrIDKey, id)
}

// WithRequestID adds an outbound request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetMRID retrieves the merge request ID from the context.
// Returns empty string if not present.
func GetMRID(ctx context.Context) string {
	if id, ok := ctx.Value(mrIDKey).(string); ok {
		return id
	}
	return ""
}

// GetRequestID retrieves the request ID from the context.
// Returns empty string if not present.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
