package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// ErrorTypeInput covers missing, unreadable or corrupt source images.
	ErrorTypeInput ErrorType = "input"
	// ErrorTypeBackendUnavailable covers optional detection dependencies
	// that are absent from this build or environment.
	ErrorTypeBackendUnavailable ErrorType = "backend_unavailable"
	// ErrorTypeBackendLoad covers backend initialization or self-test failures.
	ErrorTypeBackendLoad ErrorType = "backend_load"
	// ErrorTypeRender covers visual feedback drawing failures.
	ErrorTypeRender ErrorType = "render"
	// ErrorTypePersistence covers report or artifact write failures.
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeValidation covers malformed requests at the transport edge.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeInternal is the fallback for everything else.
	ErrorTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewInputError creates an error for missing/unreadable/corrupt input images
func NewInputError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInput,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewBackendUnavailableError creates an error for an absent optional backend
func NewBackendUnavailableError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeBackendUnavailable,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// NewBackendLoadError creates an error for a failed backend load or self-test
func NewBackendLoadError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeBackendLoad,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewRenderError creates an error for a failed drawing stage
func NewRenderError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeRender,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewPersistenceError creates an error for a failed report/artifact write
func NewPersistenceError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypePersistence,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error is of a specific type
func IsType(err error, errorType ErrorType) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
