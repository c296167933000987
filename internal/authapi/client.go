// Package authapi talks to the remote authentication service.
package authapi

import (
	"context"
	"fmt"
	"net/http"

	lserrors "langsite/internal/errors"
	"langsite/internal/session"
)

// Client signs users in and up against the remote service. Each call is a
// single attempt; retrying is left to the caller.
type Client interface {
	Login(ctx context.Context, email, password string) (session.Session, error)
	Register(ctx context.Context, name, email, password string) (session.Session, error)
}

// AuthError is returned when the service answered with a non-2xx status.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth api: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("auth api: %d %s", e.Status, http.StatusText(e.Status))
}

func (e *AuthError) Unwrap() error {
	return lserrors.ErrAuthRejected
}

// TransportError is returned when no response was received.
type TransportError struct {
	Op  string
	Err error
}

// GenericTransportMessage is the user-facing text of a TransportError.
const GenericTransportMessage = "Network error. Please try again."

func (e *TransportError) Error() string {
	return fmt.Sprintf("auth api %s: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *TransportError) Unwrap() []error {
	return []error{lserrors.ErrTransport, e.Err}
}
