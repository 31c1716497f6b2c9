// Package errors provides structured error types for nodeplot.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP server and the engine bridge
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND: Referenced node, attribute or variable does not exist
//   - CYCLE: The node graph cannot be lowered because links form a loop
//   - ENGINE_*: Failures talking to the external compute engine
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidName, "invalid variable name: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidName) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeEngine, origErr, "evaluate request %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidName   Code = "INVALID_NAME"
	ErrCodeDuplicateName Code = "DUPLICATE_NAME"
	ErrCodeReservedName  Code = "RESERVED_NAME"
	ErrCodeInvalidScene  Code = "INVALID_SCENE"
	ErrCodeInvalidURL    Code = "INVALID_URL"
	ErrCodeLimitExceeded Code = "LIMIT_EXCEEDED"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Graph structure errors
	ErrCodeCycle Code = "CYCLE"

	// Compute engine errors
	ErrCodeEngine Code = "ENGINE_ERROR"
	ErrCodeStale  Code = "ENGINE_STALE_RESULT"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error code to the HTTP status the server responds with.
// Unknown codes and plain errors map to 500.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidName, ErrCodeReservedName,
		ErrCodeInvalidScene, ErrCodeInvalidURL, ErrCodeLimitExceeded:
		return 400
	case ErrCodeNotFound:
		return 404
	case ErrCodeDuplicateName, ErrCodeStale:
		return 409
	case ErrCodeCycle:
		return 422
	case ErrCodeEngine:
		return 502
	default:
		return 500
	}
}
