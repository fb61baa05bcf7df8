// Package domain holds the coaching entities, the filtering and scoring rules applied to them,
// and the services that orchestrate repositories for the HTTP layer and the consumer.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness violation such as a duplicate enrollment or email.
	ErrConflict = errors.New("conflict")
	// ErrForbidden is returned when the caller lacks the role for an operation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotEnrolled guards course chat and progress for users outside the course.
	ErrNotEnrolled = errors.New("user is not enrolled in course")
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountBlocked is returned when a blocked user attempts to sign in.
	ErrAccountBlocked = errors.New("account is blocked")
	// ErrCaptchaFailed is returned when the human-verification answer does not match.
	ErrCaptchaFailed = errors.New("captcha verification failed")
	// ErrInvalidResetToken covers unknown, used and expired password reset tokens.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	// ErrValidation is the parent of all input validation failures.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes a rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
