package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrDataShape          = fmt.Errorf("unexpected data shape")

	// Persistence errors
	ErrNotFound = fmt.Errorf("record not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// AuthenticationError reports missing or rejected credentials for an external service.
//
// Remediation is operator-facing guidance printed by the entry point before exiting.
type AuthenticationError struct {
	Service     string
	Remediation string
	Err         error
}

func (e *AuthenticationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Service, ErrAuthFailed)
	}
	return fmt.Sprintf("%s: %v: %v", e.Service, ErrAuthFailed, e.Err)
}

// Unwrap exposes both [ErrAuthFailed] and the underlying cause to [errors.Is] and [errors.As].
func (e *AuthenticationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAuthFailed}
	}
	return []error{ErrAuthFailed, e.Err}
}

// NewAuthError builds an [AuthenticationError].
func NewAuthError(service, remediation string, err error) *AuthenticationError {
	return &AuthenticationError{Service: service, Remediation: remediation, Err: err}
}

// AsAuthError reports whether err carries an [AuthenticationError] and returns it.
func AsAuthError(err error) (*AuthenticationError, bool) {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// DataShapeError reports an API response that lacks a required field or carries an unexpected type.
type DataShapeError struct {
	Entity string
	Field  string
	Err    error
}

func (e *DataShapeError) Error() string {
	msg := fmt.Sprintf("%v: %s.%s", ErrDataShape, e.Entity, e.Field)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataShapeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDataShape}
	}
	return []error{ErrDataShape, e.Err}
}

// NewDataShapeError builds a [DataShapeError] for entity.field.
func NewDataShapeError(entity, field string, err error) *DataShapeError {
	return &DataShapeError{Entity: entity, Field: field, Err: err}
}
