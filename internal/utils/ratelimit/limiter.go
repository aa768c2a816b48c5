// Package ratelimit provides fixed-window rate limiting for API endpoints.
// Counters live in a Store: process memory for single-instance deployments,
// Redis when several replicas must share the same budget.
package ratelimit

import (
	"context"
	"time"
)

// Rate controls how many requests are allowed per window.
type Rate struct {
	// Limit is the number of requests allowed within one window
	Limit int

	// Window is the length of one counting period
	Window time.Duration
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter applies one Rate to many client identities.
type Limiter struct {
	store Store
	scope string
	rate  Rate
}

// NewLimiter creates a limiter. scope separates limiters sharing one store.
func NewLimiter(store Store, scope string, rate Rate) *Limiter {
	return &Limiter{store: store, scope: scope, rate: rate}
}

// Rate returns the configured rate.
func (l *Limiter) Rate() Rate {
	return l.rate
}

// Scope returns the key prefix of this limiter.
func (l *Limiter) Scope() string {
	return l.scope
}

// Allow records a hit for clientID and reports whether it fits in the window.
// A non-positive limit disables the limiter.
func (l *Limiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	if l.rate.Limit <= 0 {
		return Decision{Allowed: true}, nil
	}

	count, ttl, err := l.store.Incr(ctx, l.scope+":"+clientID, l.rate.Window)
	if err != nil {
		return Decision{}, err
	}

	if count > int64(l.rate.Limit) {
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}

	return Decision{Allowed: true, Remaining: l.rate.Limit - int(count)}, nil
}
