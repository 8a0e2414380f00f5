package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrBackendError, "ollama request failed").WithCause(cause)

	assert.Contains(t, err.Error(), "BACKEND_ERROR")
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)
}

func TestIsCode(t *testing.T) {
	inner := NewError(ErrBackendError, "status 500")
	outer := &Error{
		Code:     ErrRetriesExhausted,
		Message:  "all retries exhausted",
		Attempts: 4,
		Cause:    inner,
	}

	assert.True(t, IsCode(outer, ErrRetriesExhausted))
	assert.True(t, IsCode(outer, ErrBackendError), "should see through the wrapper")
	assert.False(t, IsCode(outer, ErrCancelled))

	wrapped := fmt.Errorf("run: %w", outer)
	assert.True(t, IsCode(wrapped, ErrRetriesExhausted))
	assert.False(t, IsCode(nil, ErrCancelled))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&Error{Code: ErrRateLimited, Retryable: true}))
	assert.False(t, IsRetryable(&Error{Code: ErrUnauthorized}))
	assert.False(t, IsRetryable(errors.New("plain")))
}
