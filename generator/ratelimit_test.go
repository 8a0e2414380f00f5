package generator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cstannahill/dataset-generator/types"
)

func TestRateLimiter_FirstAcquireImmediate(t *testing.T) {
	limiter := NewRateLimiter(1)

	start := time.Now()
	err := limiter.Acquire(context.Background())

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRateLimiter_EnforcesMinimumSpacing(t *testing.T) {
	// 10 rps 对应至少 100ms 的请求间隔
	limiter := NewRateLimiter(10)
	ctx := context.Background()

	require.NoError(t, limiter.Acquire(ctx))

	start := time.Now()
	require.NoError(t, limiter.Acquire(ctx))
	require.NoError(t, limiter.Acquire(ctx))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 190*time.Millisecond)
}

func TestRateLimiter_CancelledContext(t *testing.T) {
	limiter := NewRateLimiter(1)
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := limiter.Acquire(ctx)

	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCancelled))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRateLimiter_CancelDuringWait(t *testing.T) {
	limiter := NewRateLimiter(1)
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := limiter.Acquire(ctx)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrCancelled))
	// 取消后立即返回，而不是等满 1s 的间隔
	assert.Less(t, elapsed, 500*time.Millisecond)
}
