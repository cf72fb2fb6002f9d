// Package infra provides shared infrastructure used by the data-source
// clients: a rate limiter and an HTTP client with typed errors.
package infra

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// --- Rate limiter ---

// RateLimiter is a token bucket that allows maxTokens requests per
// refillRate. A limiter built with a non-positive refillRate never blocks.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a rate limiter that allows maxTokens requests
// per refillRate duration.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	if maxTokens < 1 {
		maxTokens = 1
	}
	if refillRate <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, maxTokens)}
	}
	every := rate.Every(refillRate / time.Duration(maxTokens))
	return &RateLimiter{limiter: rate.NewLimiter(every, maxTokens)}
}

// NewInterval returns a limiter that lets one request through per interval.
// The first call to Wait returns immediately.
func NewInterval(interval time.Duration) *RateLimiter {
	return NewRateLimiter(1, interval)
}

// Wait blocks until a token is available or ctx is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return ctx.Err()
	}
	return rl.limiter.Wait(ctx)
}
