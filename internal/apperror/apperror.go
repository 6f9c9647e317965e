// Package apperror provides coded domain errors shared by services and handlers.
//
// Services return *Error values (or wrap them); handlers map the Code to an
// HTTP status. Match with errors.Is against the sentinel values:
//
//	if errors.Is(err, apperror.ErrForbidden) { ... }
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeUnauthenticated   Code = "UNAUTHENTICATED"
	CodeNotFound          Code = "NOT_FOUND"
	CodeForbidden         Code = "FORBIDDEN"
	CodeInvalidVisibility Code = "INVALID_VISIBILITY"
	CodeCannotKickOwner   Code = "CANNOT_KICK_OWNER"
	CodeValidation        Code = "VALIDATION"
	CodeInternal          Code = "INTERNAL"
)

// HTTPStatus returns the HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeInvalidVisibility, CodeCannotKickOwner:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, a user-safe message and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// Sentinels for errors.Is checks.
var (
	ErrUnauthenticated   = &Error{Code: CodeUnauthenticated, Message: "unauthenticated"}
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrForbidden         = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrInvalidVisibility = &Error{Code: CodeInvalidVisibility, Message: "invalid group visibility"}
	ErrCannotKickOwner   = &Error{Code: CodeCannotKickOwner, Message: "cannot kick the group owner"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrInternal          = &Error{Code: CodeInternal, Message: "internal error"}
)

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error with the given code that wraps cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func Unauthenticated(message string) *Error { return New(CodeUnauthenticated, message) }

func NotFound(message string) *Error { return New(CodeNotFound, message) }

func Forbidden(message string) *Error { return New(CodeForbidden, message) }

func InvalidVisibility(message string) *Error { return New(CodeInvalidVisibility, message) }

func CannotKickOwner() *Error { return New(CodeCannotKickOwner, "cannot kick the group owner") }

// Validation creates a validation error carrying per-field details.
func Validation(message string, details map[string]string) *Error {
	e := New(CodeValidation, message)
	if len(details) > 0 {
		e.Details = details
	}
	return e
}

// CodeOf extracts the Code from err, or CodeInternal if err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
