package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/colonyops/mrview/internal/core/mr"
)

// TransportError wraps a failure to complete the HTTP round trip.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes TransportError match mr.ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == mr.ErrTransport
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Code)
}

// Is makes StatusError match mr.ErrStatus, plus mr.ErrUnauthorized for 401
// and 403 and mr.ErrNotFound for 404.
func (e *StatusError) Is(target error) bool {
	switch target {
	case mr.ErrStatus:
		return true
	case mr.ErrUnauthorized:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	case mr.ErrNotFound:
		return e.Code == http.StatusNotFound
	}
	return false
}

func malformed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, mr.ErrMalformed, err)
}

func rejected(op, message string) error {
	if message == "" {
		return fmt.Errorf("%s: %w", op, mr.ErrRejected)
	}
	return fmt.Errorf("%s: %w: %s", op, mr.ErrRejected, message)
}

// Message returns the most useful human readable text for err. Backend
// messages win over the wrapped chain.
func Message(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	return err.Error()
}
