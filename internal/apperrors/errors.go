// Package apperrors defines the error taxonomy shared by services and handlers.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing input. It never reaches storage.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a uniqueness violation, e.g. a taken username.
	ErrConflict = errors.New("conflict")

	// ErrUnauthorized marks bad credentials or a missing, invalid or expired token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden marks an authenticated caller that is still not allowed through.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound marks a resource that is absent or not owned by the caller.
	ErrNotFound = errors.New("not found")
)

// Error carries one of the sentinel kinds above together with a caller-facing
// message, optional per-field details and the underlying cause.
type Error struct {
	Kind    error
	Message string
	Fields  map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Is(target error) bool { return errors.Is(e.Kind, target) }
func (e *Error) Unwrap() error        { return e.Cause }

// Validation returns an ErrValidation error. fields may be nil.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: message, Fields: fields}
}

// Conflict returns an ErrConflict error wrapping cause (may be nil).
func Conflict(message string, cause error) *Error {
	return &Error{Kind: ErrConflict, Message: message, Cause: cause}
}

// Unauthorized returns an ErrUnauthorized error wrapping cause (may be nil).
func Unauthorized(message string, cause error) *Error {
	return &Error{Kind: ErrUnauthorized, Message: message, Cause: cause}
}

// Forbidden returns an ErrForbidden error.
func Forbidden(message string) *Error {
	return &Error{Kind: ErrForbidden, Message: message}
}

// NotFound returns an ErrNotFound error with a formatted message.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool   { return errors.Is(err, ErrValidation) }
func IsConflict(err error) bool     { return errors.Is(err, ErrConflict) }
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }
func IsForbidden(err error) bool    { return errors.Is(err, ErrForbidden) }
func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }

// MessageOf returns the caller-facing message of err when it is an *Error,
// and fallback otherwise.
func MessageOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// FieldsOf returns the per-field details of err, or nil.
func FieldsOf(err error) map[string]string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}
