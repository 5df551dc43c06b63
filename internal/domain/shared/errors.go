package shared

import "errors"

// ErrorKind classifies a domain error so callers can map it to a response
// without inspecting codes.
type ErrorKind string

const (
	// KindNotAllowed marks a state or business-rule violation
	KindNotAllowed ErrorKind = "NOT_ALLOWED"
	// KindValidation marks malformed input
	KindValidation ErrorKind = "VALIDATION"
	// KindNotFound marks a referenced entity that does not exist
	KindNotFound ErrorKind = "NOT_FOUND"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
// This lets package-level sentinels be matched with errors.Is.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewNotAllowedError creates a business-rule violation error
func NewNotAllowedError(code, message string) *DomainError {
	return NewDomainError(KindNotAllowed, code, message)
}

// NewValidationError creates an input validation error
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// NewNotFoundError creates a missing-entity error
func NewNotFoundError(code, message string) *DomainError {
	return NewDomainError(KindNotFound, code, message)
}

// KindOf returns the kind of the first DomainError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsNotAllowed reports whether err carries a NOT_ALLOWED domain error
func IsNotAllowed(err error) bool { return KindOf(err) == KindNotAllowed }

// IsValidation reports whether err carries a VALIDATION domain error
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether err carries a NOT_FOUND domain error
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// Common domain errors
var (
	ErrNotFound       = NewNotFoundError("NOT_FOUND", "Resource not found")
	ErrInvalidInput   = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState   = NewNotAllowedError("INVALID_STATE", "Operation not allowed in current state")
	ErrNotImplemented = NewNotAllowedError("NOT_IMPLEMENTED", "Operation not supported")
)
