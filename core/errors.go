package core

import "github.com/pkg/errors"

// FieldError reports a problem with a single request field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries per-field errors that the HTTP layer renders as a
// field-to-message map.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, fields ...FieldError) error {
	return &ValidationError{Err: err, Fields: fields}
}

func (e ValidationError) Error() string {
	if e.Err == nil {
		return "invalid request"
	}
	return e.Err.Error()
}

// shutdownError signals an integrity problem the server cannot recover from.
type shutdownError struct {
	message string
}

// NewShutdownError returns an error the HTTP layer treats as a request for a
// graceful stop.
func NewShutdownError(msg string) error {
	return &shutdownError{message: msg}
}

func (e *shutdownError) Error() string { return e.message }

// IsShutdown reports whether err (or its cause) requests a shutdown.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdownError)
	return ok
}
