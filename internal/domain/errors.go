// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import "errors"

// ErrorType represents the semantic category of an error
type ErrorType int

const (
	ErrorTypeValidation         ErrorType = iota // Input or recurrence validation errors (400 Bad Request)
	ErrorTypeNotFound                            // Meeting, template or member not found (404 Not Found)
	ErrorTypeInvalidState                        // Operation not valid for the meeting's kind (400 Bad Request)
	ErrorTypeTemporalConstraint                  // Next-instance date rules violated (400 Bad Request)
	ErrorTypeConflict                            // Store-level unique constraint violations (409 Conflict)
	ErrorTypeInternal                            // Internal server errors (500 Internal Server Error)
	ErrorTypeUnavailable                         // Service unavailable errors (503 Service Unavailable)
)

// String returns the wire code of the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeValidation:
		return "validation_failure"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeInvalidState:
		return "invalid_state"
	case ErrorTypeTemporalConstraint:
		return "temporal_constraint_violation"
	case ErrorTypeConflict:
		return "conflict"
	case ErrorTypeUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// DomainError represents an error with semantic type information
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error // underlying error for wrapping
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// GetErrorType returns the semantic type of an error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ErrorTypeInternal // default fallback
}

// IsNotFound reports whether err carries the NotFound type.
func IsNotFound(err error) bool {
	return err != nil && GetErrorType(err) == ErrorTypeNotFound
}

// IsConflict reports whether err carries the Conflict type.
func IsConflict(err error) bool {
	return err != nil && GetErrorType(err) == ErrorTypeConflict
}

// Error constructors for different types
func NewValidationError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Message: message, Err: errors.Join(err...)}
}

func NewNotFoundError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotFound, Message: message, Err: errors.Join(err...)}
}

func NewInvalidStateError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInvalidState, Message: message, Err: errors.Join(err...)}
}

func NewTemporalConstraintError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeTemporalConstraint, Message: message, Err: errors.Join(err...)}
}

func NewConflictError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Message: message, Err: errors.Join(err...)}
}

func NewInternalError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInternal, Message: message, Err: errors.Join(err...)}
}

func NewUnavailableError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnavailable, Message: message, Err: errors.Join(err...)}
}
