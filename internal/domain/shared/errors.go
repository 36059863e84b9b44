package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// kind links a specific error to one of the common errors below so that
	// errors.Is(err, ErrNotFound) matches every not-found variant.
	kind *DomainError
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is this error or the common error it derives from.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e == t || (e.kind != nil && e.kind == t)
}

// Kind returns the common error this error derives from, or the error itself.
func (e *DomainError) Kind() *DomainError {
	if e.kind != nil {
		return e.kind
	}
	return e
}

// Derive creates a specific error of the same kind as e.
func (e *DomainError) Derive(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		kind:    e.Kind(),
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrNoDataAvailable     = NewDomainError("NO_DATA_AVAILABLE", "No data available for the requested window")
)

// NewNotFoundError creates a not-found error with a specific code.
func NewNotFoundError(code, message string) *DomainError {
	return ErrNotFound.Derive(code, message)
}

// NewInvalidInputError creates an invalid-input error with a specific code.
func NewInvalidInputError(code, message string) *DomainError {
	return ErrInvalidInput.Derive(code, message)
}
