// Package apperrors defines the domain error kinds shared by services and
// handlers. Services return these sentinels (possibly wrapped); the HTTP layer
// maps each kind to a status code and response envelope.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that the requested record does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateEmail signals that another user already holds the email.
	ErrDuplicateEmail = errors.New("email already in use")

	// ErrForbidden signals that the caller may not act on the record.
	ErrForbidden = errors.New("access denied")

	// ErrInvalidCredentials deliberately does not distinguish a missing
	// account from a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountDisabled signals a login attempt on a deactivated account.
	ErrAccountDisabled = errors.New("account is deactivated")

	// ErrSelfDelete signals an admin trying to delete their own account.
	ErrSelfDelete = errors.New("you cannot delete your own account")
)

// ValidationError carries field-level messages for a rejected request body.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
