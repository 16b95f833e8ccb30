package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable classification surfaced across the
// service boundary alongside the human-readable message.
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation_error"
	KindInsufficientData ErrorKind = "insufficient_data"
	KindNotFound         ErrorKind = "not_found"
	KindModelFitting     ErrorKind = "model_fitting_error"
	KindPermission       ErrorKind = "permission_error"
)

// Error is a classified domain error. The wrapped cause, if any, stays
// internal; only Kind and Message cross the boundary.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches two domain errors by kind so sentinel comparison works.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError reports malformed or missing caller input.
func NewValidationError(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

// NewInsufficientDataError reports too little history for the requested
// product and scope. It is reported, never retried.
func NewInsufficientDataError(format string, args ...interface{}) *Error {
	return newError(KindInsufficientData, format, args...)
}

// NewNotFoundError reports a missing product or forecast.
func NewNotFoundError(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

// NewModelFittingError wraps a numeric failure during fitting. The engine
// retries these up to its configured limit before surfacing them.
func NewModelFittingError(msg string, cause error) *Error {
	return &Error{Kind: KindModelFitting, Message: msg, cause: cause}
}

// NewPermissionError reports a global-scope request from an unauthorized
// caller.
func NewPermissionError(format string, args ...interface{}) *Error {
	return newError(KindPermission, format, args...)
}

// KindOf extracts the kind of err, or "" when err is not a domain error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
