package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPolicyDenial(t *testing.T) {
	assert.True(t, IsPolicyDenial(ErrLinkDeactivated))
	assert.True(t, IsPolicyDenial(ErrLinkExpired))
	assert.True(t, IsPolicyDenial(fmt.Errorf("redeem: %w", ErrDownloadLimitReached)))

	assert.False(t, IsPolicyDenial(ErrInvalidPassword))
	assert.False(t, IsPolicyDenial(ErrNotFound))
	assert.False(t, IsPolicyDenial(errors.Join(ErrStorageUnavailable, errors.New("timeout"))))
}

func TestValidationErrorMatchesInvalidInput(t *testing.T) {
	err := NewValidationError("fileName", "is required")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.EqualError(t, err, "fileName: is required")
}
