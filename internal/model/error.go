// internal/model/error.go
package model

import (
	"errors"
	"fmt"
)

// Sentinel errors. Services wrap these with AppError; webutil maps them
// to HTTP status codes.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInternalServer    = errors.New("internal server error")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("resource conflict")
	ErrOrderingViolation = errors.New("lesson completed out of sequence")
	ErrPrecondition      = errors.New("precondition not met")
	ErrExternalService   = errors.New("external service unavailable")
	ErrLedgerRejected    = errors.New("ledger transaction rejected")
)

// AppError carries a machine-readable code and a human-readable message
// alongside the wrapped sentinel error.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Err     error  `json:"-"`
}

func NewAppError(code, message, field string, err error) *AppError {
	return &AppError{Code: code, Message: message, Field: field, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrorDetail is the error payload returned to API clients.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// APIErrorResponse is the envelope for error responses.
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// Detail converts the AppError into its client-facing shape.
func (e *AppError) Detail() ErrorDetail {
	return ErrorDetail{Code: e.Code, Message: e.Message, Field: e.Field}
}
