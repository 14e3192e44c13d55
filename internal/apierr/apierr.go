package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound   = "not_found"
	CodeValidation = "validation_error"
	CodeConflict   = "conflict"
	CodeRender     = "render_error"
	CodeInternal   = "internal_error"
)

// Error carries the HTTP status and a short client-safe message. Err holds the
// underlying cause for logs and is never sent to the caller.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code, message string, err error) *Error {
	return &Error{Status: status, Code: code, Message: message, Err: err}
}

func NotFound(format string, args ...interface{}) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Sprintf(format, args...), nil)
}

func Validation(format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Sprintf(format, args...), nil)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(http.StatusConflict, CodeConflict, fmt.Sprintf(format, args...), nil)
}

func Render(err error) *Error {
	return New(http.StatusInternalServerError, CodeRender, "failed to generate report", err)
}

func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, message, err)
}

// As extracts an *Error from err, wrapping unknown errors as internal.
func As(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Internal("internal error", err)
}

func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == CodeNotFound
}

func IsValidation(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == CodeValidation
}
