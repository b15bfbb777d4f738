// Package providers contains the clients for the external metadata
// providers and the shared rate-limited HTTP transport they use.
package providers

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps a token bucket rate limiter for controlling request
// rates to external metadata APIs. It is safe for concurrent use because the
// underlying rate.Limiter is goroutine-safe for all operations.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter.
// ratePerSecond is the sustained rate of requests per second and burst is
// the maximum number of tokens that can be consumed at once.
//
// Example configurations:
//   - NCBI E-utilities without an API key: NewRateLimiter(3, 3)
//   - Crossref polite pool: NewRateLimiter(10, 10)
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Wait blocks until a request is allowed or the context is canceled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow returns true if a request is allowed without waiting, consuming one
// token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// SetRate updates the rate limit while preserving the current burst size.
func (r *RateLimiter) SetRate(ratePerSecond float64) {
	r.limiter.SetLimit(rate.Limit(ratePerSecond))
}

// Tokens returns the current number of available tokens.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
