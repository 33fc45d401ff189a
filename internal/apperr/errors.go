// Package apperr defines the closed error-code set shared by every API
// surface. Handlers discover an *Error with errors.As and render the
// {error:{code,message,retryable}} envelope; anything else maps to INTERNAL.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies one error class in the closed set.
type Code string

const (
	CodeInvalidRequest   Code = "INVALID_REQUEST"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeProjectNotFound  Code = "PROJECT_NOT_FOUND"
	CodeAITimeout        Code = "AI_TIMEOUT"
	CodeAIFailure        Code = "AI_FAILURE"
	CodeInternal         Code = "INTERNAL"
)

// Error is the canonical application error. Code drives the HTTP status and
// the retryable flag; Message is safe to return to the caller.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error that preserves the underlying cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// From extracts the *Error from err, or wraps err as INTERNAL.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Code: CodeInternal, Message: "internal error", Err: err}
}

// HTTPStatus maps the code to its HTTP status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeProjectNotFound:
		return http.StatusNotFound
	case CodeAITimeout:
		return http.StatusGatewayTimeout
	case CodeAIFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may retry the identical request.
func (c Code) Retryable() bool {
	switch c {
	case CodeAITimeout, CodeAIFailure, CodeInternal:
		return true
	default:
		return false
	}
}
