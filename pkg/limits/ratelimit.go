// Package limits bounds how fast a live connection may send events and how
// many connections one client address may hold.
package limits

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Common errors.
var (
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrTooManyConnections = errors.New("too many connections")
)

// TokenBucket keeps one rate.Limiter per key: each key refills at rps
// tokens per second up to burst.
type TokenBucket struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewTokenBucket creates a keyed limiter. A non-positive burst is raised
// to one.
func NewTokenBucket(rps float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{
		limit:    rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow takes one token for key.
func (tb *TokenBucket) Allow(key string) bool {
	return tb.AllowN(key, 1)
}

// AllowN takes n tokens for key, or none if fewer are available.
func (tb *TokenBucket) AllowN(key string, n int) bool {
	return tb.limiter(key).AllowN(tb.now(), n)
}

func (tb *TokenBucket) limiter(key string) *rate.Limiter {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	lim, ok := tb.limiters[key]
	if !ok {
		lim = rate.NewLimiter(tb.limit, tb.burst)
		tb.limiters[key] = lim
	}
	return lim
}

// Forget drops the limiter of key. Call it when the key's connection ends.
func (tb *TokenBucket) Forget(key string) {
	tb.mu.Lock()
	delete(tb.limiters, key)
	tb.mu.Unlock()
}

// Len returns the number of tracked keys.
func (tb *TokenBucket) Len() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return len(tb.limiters)
}
