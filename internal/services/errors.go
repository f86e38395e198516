package services

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ErrAuth is the parent of every authentication and authorization failure.
var ErrAuth = errors.New("not authorized")

var (
	ErrWrongPassword       = fmt.Errorf("%w: wrong password", ErrAuth)
	ErrUnknownAccount      = fmt.Errorf("%w: unknown account", ErrAuth)
	ErrRoleMismatch        = fmt.Errorf("%w: role does not match account", ErrAuth)
	ErrUnauthorizedStation = fmt.Errorf("%w: account is not assigned to a station", ErrAuth)
	ErrStationMismatch     = fmt.Errorf("%w: station does not match account", ErrAuth)
	ErrForbidden           = fmt.Errorf("%w: forbidden", ErrAuth)
	ErrInvalidToken        = fmt.Errorf("%w: invalid or expired token", ErrAuth)
	ErrChatSignInRequired  = fmt.Errorf("%w: chat sign-in required", ErrAuth)
)

// ErrInvariant is the parent of errors that protect system-wide invariants.
var ErrInvariant = errors.New("invariant violated")

// ErrLastAdmin is returned when an operation would remove the last admin.
var ErrLastAdmin = fmt.Errorf("%w: cannot delete the last admin account", ErrInvariant)

// ErrNoRows is returned by exports when the caller can see no returns.
var ErrNoRows = errors.New("no returns available to export")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsAuthentication reports whether err means the caller could not be
// identified, as opposed to being identified and refused.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrWrongPassword) ||
		errors.Is(err, ErrUnknownAccount) ||
		errors.Is(err, ErrInvalidToken)
}
