package shared

import "errors"

// Error codes shared by the domain and the HTTP layer
const (
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeStore          = "STORE_ERROR"
	ErrCodeRefreshTrigger = "REFRESH_TRIGGER_FAILED"
	ErrCodeDuplicate      = "DUPLICATE_REQUEST"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code so wrapped copies still compare equal
// to the sentinel values below.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Wrap returns a copy of the domain error carrying cause
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Err:     cause,
	}
}

// WithMessage returns a copy of the domain error with a more specific message
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// Common domain errors
var (
	ErrNotFound       = NewDomainError(ErrCodeNotFound, "Resource not found")
	ErrInvalidInput   = NewDomainError(ErrCodeInvalidInput, "Invalid input provided")
	ErrStore          = NewDomainError(ErrCodeStore, "Data store request failed")
	ErrRefreshTrigger = NewDomainError(ErrCodeRefreshTrigger, "Data refresh request failed")
	ErrDuplicate      = NewDomainError(ErrCodeDuplicate, "Request was already processed")
)

// NewStoreError wraps a persistence failure as a StoreError
func NewStoreError(op string, cause error) *DomainError {
	return ErrStore.WithMessage(op + " failed").Wrap(cause)
}
