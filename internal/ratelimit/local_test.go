package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Limiter = (*LocalLimiter)(nil)
	_ Limiter = (*RedisLimiter)(nil)
)

func TestLocalLimiter_AllowsUpToBurst(t *testing.T) {
	// Arrange
	limiter := NewLocalLimiter(3, time.Minute, 3)
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }
	ctx := context.Background()

	// Act & Assert
	for i := 0; i < 3; i++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should pass", i+1)
		assert.Equal(t, 2-i, remaining)
	}

	allowed, remaining, reset, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.True(t, reset.After(fixed))
}

func TestLocalLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewLocalLimiter(1, time.Minute, 1)
	ctx := context.Background()

	allowed, _, _, err := limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, _, err = limiter.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, _, err = limiter.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestLocalLimiter_Refills(t *testing.T) {
	limiter := NewLocalLimiter(60, time.Minute, 1)
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		allowed, _, _, err := limiter.Allow(ctx, "k")
		require.NoError(t, err)
		require.True(t, allowed)
	}
	allowed, _, _, _ := limiter.Allow(ctx, "k")
	require.False(t, allowed)

	// One token per second.
	current = current.Add(time.Second)
	allowed, _, _, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLocalLimiter_CancelledContext(t *testing.T) {
	limiter := NewLocalLimiter(1, time.Minute, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, _, err := limiter.Allow(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalLimiter_EvictsIdleBuckets(t *testing.T) {
	limiter := NewLocalLimiter(1, time.Second, 1)
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }
	ctx := context.Background()

	_, _, _, err := limiter.Allow(ctx, "old")
	require.NoError(t, err)

	current = current.Add(time.Minute)
	_, _, _, err = limiter.Allow(ctx, "new")
	require.NoError(t, err)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.buckets, "old")
	assert.Contains(t, limiter.buckets, "new")
}

func TestLocalLimiter_SweepsAtMostOncePerWindow(t *testing.T) {
	// Arrange
	limiter := NewLocalLimiter(100, time.Second, 100)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	current := start
	limiter.now = func() time.Time { return current }
	ctx := context.Background()

	_, _, _, err := limiter.Allow(ctx, "idle")
	require.NoError(t, err)

	limiter.mu.Lock()
	limiter.buckets["idle"].lastSeen = start.Add(-time.Hour)
	limiter.mu.Unlock()

	// Act & Assert: requests inside the window do not scan the buckets
	for i := 1; i <= 9; i++ {
		current = start.Add(time.Duration(i) * 100 * time.Millisecond)
		_, _, _, err := limiter.Allow(ctx, fmt.Sprintf("10.0.0.%d", i))
		require.NoError(t, err)
	}
	limiter.mu.Lock()
	assert.Contains(t, limiter.buckets, "idle")
	assert.Equal(t, start, limiter.lastSweep)
	limiter.mu.Unlock()

	current = start.Add(time.Second)
	_, _, _, err = limiter.Allow(ctx, "10.0.0.10")
	require.NoError(t, err)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.buckets, "idle")
	assert.Len(t, limiter.buckets, 10)
	assert.Equal(t, current, limiter.lastSweep)
}
