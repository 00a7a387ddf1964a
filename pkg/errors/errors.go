// Package errors provides structured error types for hovercard.
//
// This package defines error codes and types that enable:
//   - Consistent classification of API failures for the card renderer
//   - Machine-readable error codes for programmatic handling
//   - User-friendly titles and messages for error cards
//   - Error wrapping with context preservation
//
// # Fetch Taxonomy
//
// Every failed API request is classified into exactly one fetch code:
//
//   - CONNECTION_ERROR: no response reached the client
//   - INVALID_TOKEN: 401, the stored token was rejected
//   - RATE_LIMITED: 403 with an exhausted rate-limit header
//   - FORBIDDEN: 403 for any other reason
//   - ACCESS_BLOCKED: 403/451 with a policy block payload
//   - NOT_FOUND: 404
//   - GENERIC_ERROR: anything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidReference, "invalid reference: %s", s)
//	if errors.Is(err, errors.ErrCodeInvalidReference) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeConnection, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidReference Code = "INVALID_REFERENCE"
	ErrCodeInvalidSelector  Code = "INVALID_SELECTOR"
	ErrCodeInvalidOptions   Code = "INVALID_OPTIONS"

	// Fetch taxonomy
	ErrCodeConnection    Code = "CONNECTION_ERROR"
	ErrCodeInvalidToken  Code = "INVALID_TOKEN"
	ErrCodeRateLimited   Code = "RATE_LIMITED"
	ErrCodeForbidden     Code = "FORBIDDEN"
	ErrCodeAccessBlocked Code = "ACCESS_BLOCKED"
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeGeneric       Code = "GENERIC_ERROR"

	// Local state errors
	ErrCodePageNotFound    Code = "PAGE_NOT_FOUND"
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"
	ErrCodeUnsupported     Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Status  int    // HTTP status that produced the error, 0 if none
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

// WithStatus sets the HTTP status and returns e.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
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
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return ErrCodeRateLimited
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

// Title returns the heading shown on an error card for code.
func Title(code Code) string {
	switch code {
	case ErrCodeConnection:
		return "Connection error"
	case ErrCodeInvalidToken:
		return "Invalid token"
	case ErrCodeRateLimited:
		return "API rate limit exceeded"
	case ErrCodeForbidden:
		return "Forbidden"
	case ErrCodeAccessBlocked:
		return "Access blocked"
	case ErrCodeNotFound:
		return "Not found"
	default:
		return "Error"
	}
}

// NeedsToken reports whether an error card for code should offer the
// "enter your access token" call-to-action.
func NeedsToken(code Code) bool {
	switch code {
	case ErrCodeInvalidToken, ErrCodeRateLimited, ErrCodeForbidden, ErrCodeNotFound:
		return true
	}
	return false
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	Reset   time.Time // When the rate-limit window resets, zero if unknown
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if !e.Reset.IsZero() {
		return fmt.Sprintf("rate limited: resets at %s", e.Reset.UTC().Format(time.RFC3339))
	}
	return "rate limited"
}

// Unwrap returns the underlying cause.
func (e *RateLimitedError) Unwrap() error { return e.Cause }

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
