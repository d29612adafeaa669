package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound covers both a genuinely missing resource and an ownership
	// mismatch; the two are deliberately indistinguishable to the client.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidCredentials is the single generic login failure. It never
	// reveals whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("unable to login")
)

// ValidationError reports rejected input with per-field detail.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+" "+msg)
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// isUniqueViolation reports whether the error is a sqlite unique-constraint
// failure, e.g. a duplicate email on registration.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
