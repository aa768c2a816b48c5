package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("store down")
}

func TestLimiterAllow(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(), "contact", Rate{Limit: 5, Window: time.Hour})
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		d, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 5-i, d.Remaining)
	}

	d, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.InDelta(t, time.Hour.Seconds(), d.RetryAfter.Seconds(), 1)

	// another client has its own budget
	d, _ = limiter.Allow(ctx, "10.0.0.2")
	assert.True(t, d.Allowed)
}

func TestLimiterScopesAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	contact := NewLimiter(store, "contact", Rate{Limit: 1, Window: time.Hour})
	forgot := NewLimiter(store, "forgot", Rate{Limit: 1, Window: time.Hour})
	ctx := context.Background()

	d, _ := contact.Allow(ctx, "ip")
	assert.True(t, d.Allowed)
	d, _ = forgot.Allow(ctx, "ip")
	assert.True(t, d.Allowed)
}

func TestLimiterDisabled(t *testing.T) {
	limiter := NewLimiter(failingStore{}, "x", Rate{Limit: 0, Window: time.Minute})

	d, err := limiter.Allow(context.Background(), "ip")

	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, Rate{Limit: 0, Window: time.Minute}, limiter.Rate())
}

func TestLimiterStoreError(t *testing.T) {
	limiter := NewLimiter(failingStore{}, "x", Rate{Limit: 1, Window: time.Minute})

	_, err := limiter.Allow(context.Background(), "ip")

	assert.Error(t, err)
}
