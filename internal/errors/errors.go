// Package errors provides the error construction and classification used
// across the application. Errors are built fluently, marked with a
// sentinel code, and carry a user-presentable hint separate from the
// internal error chain.
package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel codes. Every error leaving a repository or service is marked
// with exactly one of these.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrDatabase         = errors.New("database error")
	ErrInternal         = errors.New("internal error")
)

// InternalError is the concrete error type produced by the builder.
type InternalError struct {
	code    error
	err     error
	hint    string
	details map[string]interface{}
}

func (e *InternalError) Error() string {
	return e.err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.err
}

// Is lets errors.Is match against the sentinel the error was marked with.
func (e *InternalError) Is(target error) bool {
	return errors.Is(e.code, target)
}

// Hint returns the user-presentable message, never internal details.
func (e *InternalError) Hint() string {
	return e.hint
}

// ReportableDetails returns structured context safe to surface to callers.
func (e *InternalError) ReportableDetails() map[string]interface{} {
	return e.details
}

// Builder assembles an InternalError.
type Builder struct {
	err     error
	hint    string
	details map[string]interface{}
}

// NewError starts a builder from a message.
func NewError(msg string) *Builder {
	return &Builder{err: errors.New(msg)}
}

// NewErrorf starts a builder from a formatted message.
func NewErrorf(format string, args ...interface{}) *Builder {
	return &Builder{err: errors.Newf(format, args...)}
}

// WithError starts a builder wrapping an existing error.
func WithError(err error) *Builder {
	return &Builder{err: err}
}

// WithHint attaches the message shown to end users.
func (b *Builder) WithHint(hint string) *Builder {
	b.hint = hint
	return b
}

// WithHintf attaches a formatted user-facing message.
func (b *Builder) WithHintf(format string, args ...interface{}) *Builder {
	b.hint = fmt.Sprintf(format, args...)
	return b
}

// WithReportableDetails attaches structured context that is safe to return
// in API responses.
func (b *Builder) WithReportableDetails(details map[string]interface{}) *Builder {
	b.details = details
	return b
}

// Mark finalizes the error with its sentinel code.
func (b *Builder) Mark(code error) error {
	return &InternalError{
		code:    code,
		err:     b.err,
		hint:    b.hint,
		details: b.details,
	}
}

// Is reports whether err matches target anywhere in its chain.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// HTTPStatus maps an error's sentinel code to a response status.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidOperation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorDetail is the wire shape of a surfaced error. The display message
// comes from the hint; raw internal errors are never sent to clients.
type ErrorDetail struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse is the standard error envelope for API responses.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// NewErrorResponse builds the response body for an error.
func NewErrorResponse(err error) *ErrorResponse {
	resp := &ErrorResponse{
		Success: false,
		Error:   ErrorDetail{Message: "An unexpected error occurred"},
	}

	var ie *InternalError
	if errors.As(err, &ie) {
		if ie.Hint() != "" {
			resp.Error.Message = ie.Hint()
		}
		resp.Error.Details = ie.ReportableDetails()
	}
	return resp
}
