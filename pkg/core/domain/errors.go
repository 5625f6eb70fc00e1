package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("link not found")
	ErrDuplicateToken  = errors.New("share token already exists")
	ErrTokenGeneration = errors.New("failed to generate share token")
	ErrNotRedeemable   = errors.New("link is no longer redeemable")
	ErrObjectNotFound  = errors.New("object not found")

	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")

	// Policy denials. These are safe to show to anonymous visitors.
	ErrLinkDeactivated      = errors.New("this link has been deactivated")
	ErrLinkExpired          = errors.New("this link has expired")
	ErrDownloadLimitReached = errors.New("download limit reached")

	ErrInvalidPassword    = errors.New("invalid password")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError describes a rejected field. It matches ErrInvalidInput
// with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsPolicyDenial reports whether err is one of the redemption policy reasons.
func IsPolicyDenial(err error) bool {
	return errors.Is(err, ErrLinkDeactivated) ||
		errors.Is(err, ErrLinkExpired) ||
		errors.Is(err, ErrDownloadLimitReached)
}
