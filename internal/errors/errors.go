// Package errors defines the application error model: a small set of
// stable error codes, an AppError carrier that keeps causes reachable
// through errors.Is and errors.As, and translation of database
// failures into those codes.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an AppError. The values are part of the HTTP
// API surface and must stay stable.
type ErrorCode string

const (
	ErrCodeNotFound    ErrorCode = "not_found"    // no resource with the given identifier
	ErrCodeConflict    ErrorCode = "conflict"     // duplicate of an existing resource
	ErrCodeValidation  ErrorCode = "validation"   // malformed or rejected input
	ErrCodeInvalidKind ErrorCode = "invalid_kind" // unknown report kind
	ErrCodeNotReady    ErrorCode = "not_ready"    // result requested before the job completed
	ErrCodeGeneration  ErrorCode = "generation"   // report generation failed
	ErrCodeForeignKey  ErrorCode = "foreign_key"  // referenced row missing or still in use
	ErrCodeInternal    ErrorCode = "internal"     // unexpected server-side failure
	ErrCodeTimeout     ErrorCode = "timeout"      // deadline exceeded
	ErrCodeCanceled    ErrorCode = "canceled"     // caller abandoned the request
)

// AppError is the error type the rest of the service traffics in. It
// pairs a stable code with a message suitable for API responses.
type AppError struct {
	Code    ErrorCode
	Message string

	// Field names the offending input field on validation and
	// conflict errors, when it can be determined.
	Field string

	// Cause is the wrapped lower-level error, if any.
	Cause error
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

// Unwrap exposes the cause to the errors package helpers.
func (e *AppError) Unwrap() error { return e.Cause }

func newError(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// NotFound builds a not_found error for a missing resource.
func NotFound(message string) *AppError { return newError(ErrCodeNotFound, message) }

// NotFoundf is NotFound with a formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return newError(ErrCodeNotFound, fmt.Sprintf(format, args...))
}

// Conflict builds a conflict error for duplicates of existing data.
func Conflict(message string) *AppError { return newError(ErrCodeConflict, message) }

// Conflictf is Conflict with a formatted message.
func Conflictf(format string, args ...any) *AppError {
	return newError(ErrCodeConflict, fmt.Sprintf(format, args...))
}

// Validation builds a validation error for rejected input.
func Validation(message string) *AppError { return newError(ErrCodeValidation, message) }

// Validationf is Validation with a formatted message.
func Validationf(format string, args ...any) *AppError {
	return newError(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// ValidationField builds a validation error attributed to one input field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// InvalidKind builds an invalid_kind error for an unrecognized report kind.
func InvalidKind(message string) *AppError { return newError(ErrCodeInvalidKind, message) }

// InvalidKindf is InvalidKind with a formatted message.
func InvalidKindf(format string, args ...any) *AppError {
	return newError(ErrCodeInvalidKind, fmt.Sprintf(format, args...))
}

// NotReady builds a not_ready error. Messages should name the job's
// current status so callers can tell how far along it is.
func NotReady(message string) *AppError { return newError(ErrCodeNotReady, message) }

// NotReadyf is NotReady with a formatted message.
func NotReadyf(format string, args ...any) *AppError {
	return newError(ErrCodeNotReady, fmt.Sprintf(format, args...))
}

// Generation builds a generation error for a failed report build.
func Generation(message string) *AppError { return newError(ErrCodeGeneration, message) }

// Generationf is Generation with a formatted message.
func Generationf(format string, args ...any) *AppError {
	return newError(ErrCodeGeneration, fmt.Sprintf(format, args...))
}

// ForeignKey builds a foreign_key error for reference integrity failures.
func ForeignKey(message string) *AppError { return newError(ErrCodeForeignKey, message) }

// Internal builds an internal error for unexpected failures.
func Internal(message string) *AppError { return newError(ErrCodeInternal, message) }

// Internalf is Internal with a formatted message.
func Internalf(format string, args ...any) *AppError {
	return newError(ErrCodeInternal, fmt.Sprintf(format, args...))
}

// Wrap gives err a code and message while keeping it as the cause.
// Wrapping nil returns nil so call sites need no guard.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// GetCode returns err's ErrorCode, or "" when no AppError is in the chain.
func GetCode(err error) ErrorCode {
	var ae *AppError
	if !errors.As(err, &ae) {
		return ""
	}
	return ae.Code
}

// GetField returns the offending field name, or "" when none was recorded.
func GetField(err error) string {
	var ae *AppError
	if !errors.As(err, &ae) {
		return ""
	}
	return ae.Field
}

// IsNotFound reports whether err carries ErrCodeNotFound.
func IsNotFound(err error) bool { return GetCode(err) == ErrCodeNotFound }

// IsConflict reports whether err carries ErrCodeConflict.
func IsConflict(err error) bool { return GetCode(err) == ErrCodeConflict }

// IsValidation reports whether err carries ErrCodeValidation.
func IsValidation(err error) bool { return GetCode(err) == ErrCodeValidation }

// IsInvalidKind reports whether err carries ErrCodeInvalidKind.
func IsInvalidKind(err error) bool { return GetCode(err) == ErrCodeInvalidKind }

// IsNotReady reports whether err carries ErrCodeNotReady.
func IsNotReady(err error) bool { return GetCode(err) == ErrCodeNotReady }

// IsGeneration reports whether err carries ErrCodeGeneration.
func IsGeneration(err error) bool { return GetCode(err) == ErrCodeGeneration }

// IsForeignKey reports whether err carries ErrCodeForeignKey.
func IsForeignKey(err error) bool { return GetCode(err) == ErrCodeForeignKey }

// IsInternal reports whether err carries ErrCodeInternal.
func IsInternal(err error) bool { return GetCode(err) == ErrCodeInternal }

// IsTimeout reports whether err carries ErrCodeTimeout.
func IsTimeout(err error) bool { return GetCode(err) == ErrCodeTimeout }

// IsCanceled reports whether err carries ErrCodeCanceled.
func IsCanceled(err error) bool { return GetCode(err) == ErrCodeCanceled }
