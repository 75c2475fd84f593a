package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", NewValidationError("amount", "must be positive"), ErrValidation},
		{"provider", &ProviderError{Provider: "stripe", Op: "verify", Err: context.DeadlineExceeded, Timeout: true}, ErrProvider},
		{"store", &StoreError{Op: "update", Collection: "contributions", Err: errors.New("boom")}, ErrStore},
		{"wrapped validation", fmt.Errorf("create: %w", NewValidationError("kind", "required")), ErrValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.err, tc.sentinel)
		})
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := &ProviderError{Provider: "paystack", Op: "verify", StatusCode: 503, Err: errors.New("upstream")}
	assert.Equal(t, "paystack verify failed with status 503: upstream", err.Error())
	assert.ErrorIs(t, &ProviderError{Provider: "stripe", Op: "initiate", Timeout: true, Err: context.DeadlineExceeded}, context.DeadlineExceeded)
}

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "validation error: amount: must be positive", NewValidationError("amount", "must be positive").Error())
	assert.Equal(t, "validation error: bad patch", NewValidationError("", "bad patch").Error())
}
