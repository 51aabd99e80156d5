package errors

import (
	"fmt"
	"net/http"
)

// Rejections are returned to callers as values. The core never panics or
// retries; mapping to transport status codes happens at the edge.
const (
	CodeInvalidRange       = "INVALID_RANGE"
	CodeMisaligned         = "MISALIGNED"
	CodeOutOfHours         = "OUT_OF_HOURS"
	CodeFieldTooLong       = "FIELD_TOO_LONG"
	CodeDailyQuotaExceeded = "DAILY_QUOTA_EXCEEDED"
	CodeWindowFull         = "WINDOW_FULL"
	CodeNotOwner           = "NOT_OWNER"
	CodeNotFound           = "NOT_FOUND"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"

	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// InvalidRange rejects a reservation whose end does not follow its start.
func InvalidRange(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidRange,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Misaligned rejects endpoints that do not sit on the window grid.
func Misaligned(message string) *AppError {
	return &AppError{
		Code:       CodeMisaligned,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// OutOfHours rejects a reservation that leaves the working-hours band.
func OutOfHours(message string) *AppError {
	return &AppError{
		Code:       CodeOutOfHours,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func FieldTooLong(field string, maxLen int) *AppError {
	return &AppError{
		Code:       CodeFieldTooLong,
		Message:    fmt.Sprintf("%s must be at most %d characters", field, maxLen),
		HTTPStatus: http.StatusBadRequest,
		Details: map[string]any{
			"field":      field,
			"max_length": maxLen,
		},
	}
}

func DailyQuotaExceeded(quota int) *AppError {
	return &AppError{
		Code:       CodeDailyQuotaExceeded,
		Message:    fmt.Sprintf("daily reservation quota of %d reached", quota),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"quota": quota,
		},
	}
}

// WindowFull names the first window (by start time) that has no room left.
func WindowFull(windowStart string, capacity int) *AppError {
	return &AppError{
		Code:       CodeWindowFull,
		Message:    fmt.Sprintf("window %s is fully booked", windowStart),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"window":   windowStart,
			"capacity": capacity,
		},
	}
}

func NotOwner(message string) *AppError {
	return &AppError{
		Code:       CodeNotOwner,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

// StoreUnavailable wraps a persistence fault so callers can tell "try again
// later" apart from "your request is invalid".
func StoreUnavailable(err error) *AppError {
	return &AppError{
		Code:       CodeStoreUnavailable,
		Message:    "reservation store is temporarily unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code string) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}
