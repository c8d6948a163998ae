// Package errors defines the failure taxonomy rendered in API error envelopes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Codes carried in the error envelope.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeConflict           = "CONFLICT"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	CodeForbidden          = "FORBIDDEN"
	CodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	CodeUpstream           = "UPSTREAM_ERROR"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_SERVER_ERROR"
)

// AppError is an error with a client-facing code, message and HTTP status.
// Internal holds the cause for logs and is never rendered.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches on code and message, so copies made by WithInternal still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if e == nil || !ok || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// WithInternal returns a copy carrying err as its cause.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}
	cpy := *e
	cpy.Internal = err
	return &cpy
}

// WithStatus returns a copy rendered with status. The copy still matches e under errors.Is.
func (e *AppError) WithStatus(status int) *AppError {
	if e == nil {
		return nil
	}
	cpy := *e
	cpy.StatusCode = status
	return &cpy
}

// Sentinels shared across packages.
var (
	ErrUnauthorized       = New(CodeUnauthorized, "Unauthorized", http.StatusUnauthorized)
	ErrInvalidCredentials = New(CodeInvalidCredentials, "Invalid credentials", http.StatusUnauthorized)
	ErrEmailNotVerified   = New(CodeEmailNotVerified, "Email not verified", http.StatusUnauthorized)
	ErrRateLimit          = New(CodeRateLimited, "Too many requests, please slow down", http.StatusTooManyRequests)
	ErrUpstream           = New(CodeUpstream, "Analysis service unavailable", http.StatusBadGateway)
	ErrInternalServer     = New(CodeInternal, "Internal server error", http.StatusInternalServerError)
)

// New builds an AppError.
func New(code, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

// FromError finds the AppError in err's chain. Anything else becomes an
// internal server error that keeps err as its cause.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.WithInternal(err)
}

// NewBadRequest reports a body that could not be decoded.
func NewBadRequest(message string) *AppError {
	return New(CodeBadRequest, message, http.StatusBadRequest)
}

// NewValidation reports missing or malformed caller input.
func NewValidation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

// NewConflict reports a uniqueness violation such as a duplicate email.
func NewConflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

// NewNotFound reports an unknown user, token, record or route.
func NewNotFound(message string) *AppError {
	return New(CodeNotFound, message, http.StatusNotFound)
}

// NewForbidden reports a request refused by policy, e.g. a disallowed CORS origin.
func NewForbidden(code, message string) *AppError {
	return New(code, message, http.StatusForbidden)
}

// NewUnavailable reports a dependency that is down or switched off.
func NewUnavailable(code, message string) *AppError {
	return New(code, message, http.StatusServiceUnavailable)
}

// HasCode reports whether err's chain holds an AppError with code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
