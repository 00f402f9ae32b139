package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelChecks(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", ErrNotFound, IsNotFound},
		{"validation", ErrValidation, IsValidation},
		{"already exists", ErrAlreadyExists, IsAlreadyExists},
		{"invalid state", ErrInvalidState, IsInvalidState},
		{"stream closed", ErrStreamClosed, IsStreamClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, tt.check(fmt.Errorf("unrelated")))
			assert.False(t, tt.check(nil))
		})
	}
}

func TestTransportErrorRetryable(t *testing.T) {
	retryable := NewTransportError("read", fmt.Errorf("connection reset"))
	assert.True(t, IsRetryable(retryable))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", retryable)))

	fatal := NewFatalTransportError("dial", fmt.Errorf("bad url"))
	assert.False(t, IsRetryable(fatal))

	// Deliberate close never retries.
	assert.False(t, IsRetryable(ErrStreamClosed))
	assert.False(t, IsRetryable(fmt.Errorf("closing: %w", ErrStreamClosed)))

	// Unclassified errors default to retryable.
	assert.True(t, IsRetryable(fmt.Errorf("some network blip")))
	assert.False(t, IsRetryable(nil))
}

func TestTransportErrorMessage(t *testing.T) {
	err := NewTransportError("write", fmt.Errorf("broken pipe"))
	assert.Equal(t, "transport: write: broken pipe", err.Error())

	bare := &TransportError{Op: "dial"}
	assert.Equal(t, "transport: dial failed", bare.Error())
}
