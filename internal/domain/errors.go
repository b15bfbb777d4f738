package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrLookup indicates a domain-level resolution failure: a missing
	// identifier, a record without a title or year, an unresolvable PMCID,
	// or a non-success provider response. Lookup failures are recoverable;
	// batch callers skip the record and continue.
	ErrLookup = errors.New("lookup failed")

	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")
)

// LookupError is the only domain error produced by record resolution. It
// always carries a human-readable cause suitable for surfacing to an
// operator verbatim. Transport and parse failures outside this taxonomy
// propagate unwrapped.
type LookupError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("lookup failed: %s: %v", e.Message, e.Cause)
	}
	return "lookup failed: " + e.Message
}

// Unwrap returns the sentinel ErrLookup so callers can test with errors.Is.
// The wrapped cause, if any, is reachable through the error chain as well.
func (e *LookupError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrLookup, e.Cause}
	}
	return []error{ErrLookup}
}

// NewLookupError creates a LookupError with a human-readable message.
func NewLookupError(message string) *LookupError {
	return &LookupError{Message: message}
}

// NewLookupErrorf creates a LookupError with a formatted message.
func NewLookupErrorf(format string, args ...any) *LookupError {
	return &LookupError{Message: fmt.Sprintf(format, args...)}
}

// ExternalAPIError describes a non-success response from a metadata
// provider. It unwraps to ErrLookup because a failed provider call is a
// recoverable resolution failure, not a fatal transport error.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ExternalAPIError) Unwrap() error {
	return ErrLookup
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source string, statusCode int, message string) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NotFoundError provides details about a not found entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{
		Entity: entity,
		ID:     id,
	}
}
