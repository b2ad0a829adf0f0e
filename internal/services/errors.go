package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/quiz-access-service/internal/validator"
)

// Quiz errors
var (
	ErrQuizNotFound = errors.New("quiz not found")
)

// Attempt errors
var (
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrAttemptCannotStart = errors.New("cannot start new attempt")
	ErrAttemptNotActive   = errors.New("attempt is not active")
	ErrPreflightFailed    = errors.New("preflight check failed")
)

// Override errors
var (
	ErrOverrideNotFound = errors.New("override not found")
	ErrInvalidOverride  = errors.New("invalid override")
)

// Generic errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ValidationErrors is the field-level error list returned for invalid requests
type ValidationErrors = validator.ValidationErrors

// AccessDeniedError carries every reason the access rules gave for refusing an attempt
type AccessDeniedError struct {
	Reasons []string
}

func (e *AccessDeniedError) Error() string {
	if len(e.Reasons) == 0 {
		return ErrAttemptCannotStart.Error()
	}
	return fmt.Sprintf("%s: %s", ErrAttemptCannotStart, strings.Join(e.Reasons, "; "))
}

// Reason is the headline message shown to the user
func (e *AccessDeniedError) Reason() string {
	if len(e.Reasons) == 0 {
		return ""
	}
	return e.Reasons[0]
}

func (e *AccessDeniedError) Unwrap() error {
	return ErrAttemptCannotStart
}

// PermissionError is returned when the caller may not act on a resource
type PermissionError struct {
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: cannot %s %s: %s", e.Action, e.Resource, e.Reason)
}

func (e *PermissionError) Unwrap() error {
	return ErrForbidden
}
