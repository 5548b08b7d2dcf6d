package errors

import (
	"errors"
	"net/http"
)

// APIError is the structured error every handler reports through
// c.Error; the ErrorHandler middleware renders it as JSON.
type APIError struct {
	Status   int            `json:"-"`
	Code     string         `json:"code"`
	Message  string         `json:"error"`
	Details  map[string]any `json:"details,omitempty"`
	Internal error          `json:"-"`
}

// Error returns the error message
func (e *APIError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the original error
func (e *APIError) Unwrap() error {
	return e.Internal
}

// WithDetails returns a copy of the error carrying machine-readable details
func (e *APIError) WithDetails(details map[string]any) *APIError {
	return &APIError{
		Status:   e.Status,
		Code:     e.Code,
		Message:  e.Message,
		Details:  details,
		Internal: e.Internal,
	}
}

func Unauthorized(message string, err error) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: message, Internal: err}
}

func Forbidden(message string, err error) *APIError {
	return &APIError{Status: http.StatusForbidden, Code: "forbidden", Message: message, Internal: err}
}

func NotFound(message string, err error) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: "not_found", Message: message, Internal: err}
}

func BadRequest(message string, err error) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "bad_request", Message: message, Internal: err}
}

// NewValidationError wraps a binding failure
func NewValidationError(err error) *APIError {
	return BadRequest("Invalid input", err)
}

// StoreFailure covers persistence errors; the triggering request fails,
// the on-disk state stays at its last committed version.
func StoreFailure(err error) *APIError {
	return &APIError{Status: http.StatusInternalServerError, Code: "store_failure", Message: "Could not persist change", Internal: err}
}

func Internal(err error) *APIError {
	return &APIError{Status: http.StatusInternalServerError, Code: "internal", Message: "Internal server error", Internal: err}
}

// FromStore passes APIErrors through untouched and converts raw
// persistence failures into StoreFailure.
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return StoreFailure(err)
}
