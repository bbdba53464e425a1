package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg RateLimitConfig) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClient(Config{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimiter(client, cfg), mr
}

func TestAllowMessageWithinLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, RateLimitConfig{MessageLimit: 3, MessageWindow: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.AllowMessage(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 3, result.Limit)
		assert.Equal(t, 2-i, result.Remaining)
	}

	result, err := limiter.AllowMessage(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
}

func TestAllowMessageIsPerUser(t *testing.T) {
	limiter, _ := newTestLimiter(t, RateLimitConfig{MessageLimit: 1, MessageWindow: time.Minute})
	ctx := context.Background()

	result, err := limiter.AllowMessage(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, result.Allowed)

	result, err = limiter.AllowMessage(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	result, err = limiter.AllowMessage(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, result.Allowed, "one user's burst must not throttle another")
}

func TestAllowMessageResetsAfterWindow(t *testing.T) {
	limiter, mr := newTestLimiter(t, RateLimitConfig{MessageLimit: 1, MessageWindow: time.Minute})
	ctx := context.Background()

	result, err := limiter.AllowMessage(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = limiter.AllowMessage(ctx, "user-1")
	require.NoError(t, err)
	require.False(t, result.Allowed)

	mr.FastForward(61 * time.Second)

	result, err = limiter.AllowMessage(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}
