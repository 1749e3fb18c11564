package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter is an in-process token bucket per key.
// Buckets refill continuously at maxRequests per window and hold up to burst tokens.
type LocalLimiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	limit       rate.Limit
	burst       int
	maxRequests int
	idleTTL     time.Duration
	sweepEvery  time.Duration
	lastSweep   time.Time
	now         func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalLimiter creates a limiter allowing maxRequests per window with the given burst.
// A burst below maxRequests is raised to maxRequests.
func NewLocalLimiter(maxRequests int, window time.Duration, burst int) *LocalLimiter {
	if burst < maxRequests {
		burst = maxRequests
	}
	return &LocalLimiter{
		buckets:     make(map[string]*bucket),
		limit:       rate.Limit(float64(maxRequests) / window.Seconds()),
		burst:       burst,
		maxRequests: maxRequests,
		idleTTL:     10 * window,
		sweepEvery:  window,
		now:         time.Now,
	}
}

// Allow consumes one token from the bucket of key
func (l *LocalLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, time.Time{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictIdle(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)
	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}

	// Time until one full token is available again.
	reset := now
	if tokens < 1 && l.limit > 0 {
		missing := 1 - tokens
		reset = now.Add(time.Duration(missing / float64(l.limit) * float64(time.Second)))
	}
	return allowed, remaining, reset, nil
}

// evictIdle drops buckets not used for idleTTL, scanning at most once per
// sweepEvery. Callers must hold l.mu.
func (l *LocalLimiter) evictIdle(now time.Time) {
	if !l.lastSweep.IsZero() && now.Sub(l.lastSweep) < l.sweepEvery {
		return
	}
	l.lastSweep = now

	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, key)
		}
	}
}

// MaxRequests returns the number of requests allowed per window
func (l *LocalLimiter) MaxRequests() int {
	return l.maxRequests
}
