package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
	// ErrCodePersistence marks a failed durable write or read. The in-memory state that
	// triggered it stays valid, so callers treat it as a warning.
	ErrCodePersistence ErrorCode = "PERSISTENCE"
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"
	ErrCodeUpstream    ErrorCode = "UPSTREAM"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches domain errors by code and message so sentinel values survive wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Invalid builds an INVALID error with a formatted message.
func Invalid(format string, args ...interface{}) *Error {
	return NewError(ErrCodeInvalid, fmt.Sprintf(format, args...))
}

// Common domain errors.
var (
	ErrRecordNotFound     = NewError(ErrCodeNotFound, "record not found")
	ErrEventNotFound      = NewError(ErrCodeNotFound, "calendar event not found")
	ErrDocumentNotFound   = NewError(ErrCodeNotFound, "document not found")
	ErrUnauthorized       = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload     = NewError(ErrCodeInvalid, "invalid payload")
	ErrGeneratorDisabled  = NewError(ErrCodeUnavailable, "content generator not configured")
	ErrEmptyGeneration    = NewError(ErrCodeUpstream, "generator returned no text")
	ErrStoreNotConfigured = NewError(ErrCodeInternal, "document store not configured")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// IsWarning reports whether err only signals a best-effort persistence failure.
func IsWarning(err error) bool {
	return IsDomainError(err, ErrCodePersistence)
}
