package apperror

import (
	"errors"
	"net/http"
)

// Machine-readable reasons carried on every AppError raised by the receipt pipeline.
const (
	ReasonBadRequest     = "bad_request"
	ReasonValidation     = "validation_failed"
	ReasonDuplicateOrder = "duplicate_order"
	ReasonNotFound       = "not_found"
	ReasonNoRecords      = "no_records"
	ReasonRenderFailed   = "render_failed"
	ReasonRenderTimeout  = "render_timeout"
	ReasonUploadFailed   = "upload_failed"
	ReasonUploadTimeout  = "upload_timeout"
	ReasonRateLimited    = "too_many_requests"
	ReasonInternal       = "internal_error"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Reason  string       `json:"reason,omitempty"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
	Err     error        `json:"-"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError by reason, so wrapped copies of the sentinels below
// still satisfy errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if e == t {
		return true
	}
	return t.Reason != "" && t.Reason == e.Reason
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Reason: ReasonNotFound, Message: "Resource not found"}
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Reason: ReasonBadRequest, Message: "Bad request"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Reason: ReasonInternal, Message: "Internal server error"}
	ErrValidation     = &AppError{Code: http.StatusUnprocessableEntity, Reason: ReasonValidation, Message: "Validation failed"}
	ErrDuplicateOrder = &AppError{Code: http.StatusConflict, Reason: ReasonDuplicateOrder, Message: "A receipt for this order already exists"}
	ErrNoRecords      = &AppError{Code: http.StatusNotFound, Reason: ReasonNoRecords, Message: "No receipts found"}
	ErrRenderFailed   = &AppError{Code: http.StatusInternalServerError, Reason: ReasonRenderFailed, Message: "Receipt document rendering failed"}
	ErrRenderTimeout  = &AppError{Code: http.StatusGatewayTimeout, Reason: ReasonRenderTimeout, Message: "Receipt document rendering timed out"}
	ErrUploadFailed   = &AppError{Code: http.StatusBadGateway, Reason: ReasonUploadFailed, Message: "Receipt document upload failed"}
	ErrUploadTimeout  = &AppError{Code: http.StatusGatewayTimeout, Reason: ReasonUploadTimeout, Message: "Receipt document upload timed out"}
	ErrRateLimited    = &AppError{Code: http.StatusTooManyRequests, Reason: ReasonRateLimited, Message: "Rate limit exceeded. Please try again later."}
)

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Reason:  ReasonValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Reason:  ReasonNotFound,
		Message: resource + " not found",
	}
}

// Wrap copies a sentinel, attaching the cause and optional response data.
func Wrap(sentinel *AppError, cause error, data interface{}) *AppError {
	wrapped := *sentinel
	wrapped.Err = cause
	wrapped.Data = data
	return &wrapped
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError converts an error to AppError. Anything else becomes an
// internal error that keeps err as its cause but never shows its text.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternalServer, err, nil)
}
