package domain

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrUserExists         = errors.New("username or email already in use")
	ErrUserNotFound       = errors.New("user not found")
	ErrTrialNotFound      = errors.New("trial not found")
	ErrDuplicateTrialID   = errors.New("trial id already in use")
	ErrInvalidID          = errors.New("invalid identifier")
)

// ValidationError carries every violated rule for one request. Field checks
// are never fail-fast: callers get the full list in a single response.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// NewValidationError builds a ValidationError from one or more messages.
func NewValidationError(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}
