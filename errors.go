package epsonconnect

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a client is constructed with missing
// connection parameters.
var ErrInvalidConfig = errors.New("invalid configuration")

// AuthenticationError is returned when the token endpoint rejects a grant.
type AuthenticationError struct {
	Code        string
	Description string
}

func (e *AuthenticationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authentication failed: %s (%s)", e.Code, e.Description)
	}
	return fmt.Sprintf("authentication failed: %s", e.Code)
}

// APIError is returned when the response of an authenticated call carries an
// error field.
type APIError struct {
	Code        string
	Description string
	StatusCode  int
}

func (e *APIError) Error() string {
	msg := "api error: " + e.Code
	if e.Description != "" {
		msg += " (" + e.Description + ")"
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" [status %d]", e.StatusCode)
	}
	return msg
}

// TransportError is returned for network failures, timeouts and non-2xx
// responses that carry no JSON error.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("transport error: %v", e.Err)
	default:
		return "transport error: " + e.Message
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Temporary reports whether retrying the same request may succeed.
func (e *TransportError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// PreconditionError is returned when an operation is invoked in an invalid
// local state.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// ValidationError is returned when caller input is rejected before any
// request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
