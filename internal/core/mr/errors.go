package mr

import "errors"

var (
	// ErrTransport matches failures to reach the backend at all.
	ErrTransport = errors.New("transport error")
	// ErrStatus matches non-success HTTP responses.
	ErrStatus = errors.New("unexpected response status")
	// ErrMalformed matches responses that could not be decoded.
	ErrMalformed = errors.New("malformed response")
	// ErrRejected matches well-formed responses where the backend reported failure.
	ErrRejected = errors.New("request rejected")

	// ErrUnauthenticated is returned locally when a mutation is attempted
	// without a successful auth probe. Nothing is sent to the backend.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrUnauthorized matches 401 and 403 responses from the backend.
	ErrUnauthorized = errors.New("unauthorized")

	ErrIllegalTransition = errors.New("illegal transition")
	ErrBusy              = errors.New("operation already in progress")
	ErrEmptyComment      = errors.New("comment body is empty")
	ErrNotFound          = errors.New("merge request not found")
)
