// Package apperr defines the error taxonomy shared by the transport client
// and the controllers: local validation failures, transport failures,
// service failures and the controller guard errors.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrBusy             = errors.New("a request is already in flight")
	ErrConfigPush       = errors.New("config push failed")
	ErrExtendedDisabled = errors.New("extended config fields are disabled")
	ErrInvalidOption    = errors.New("invalid option")
)

// ValidationError is a local rule violation. It never reaches the network
// and its message is shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Validation(msg string) error {
	return &ValidationError{Message: msg}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// NetworkError is a transport failure: no response was received.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError is a response with a non-2xx status. Message holds the
// service's own description when the body carried one.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: request failed with status code %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func Kind(err error) string {
	var (
		v *ValidationError
		n *NetworkError
		s *StatusError
	)

	switch {
	case err == nil:
		return ""

	case errors.As(err, &v):
		return "validation"

	case errors.Is(err, ErrBusy):
		return "busy"

	case errors.Is(err, ErrConfigPush):
		return "config_push"

	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"

	case errors.Is(err, context.Canceled):
		return "canceled"

	case errors.As(err, &s):
		return "service"

	case errors.As(err, &n):
		return "network"

	default:
		return "internal"
	}
}

// Message converts err into the single human-readable string written to
// shared state. Validation messages and service-provided messages pass
// through; a failed config push and everything else become fallback, so the
// user sees which step failed.
func Message(err error, fallback string) string {
	var (
		v *ValidationError
		s *StatusError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &v):
		return v.Message
	case errors.Is(err, ErrConfigPush):
		return fallback
	case errors.As(err, &s) && s.Message != "":
		return s.Message
	default:
		return fallback
	}
}
