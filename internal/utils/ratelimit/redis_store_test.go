package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test:"), mr
}

func TestRedisStoreIncr(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	count, ttl, err := store.Incr(ctx, "contact:1.2.3.4", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Hour, ttl)
	assert.True(t, mr.Exists("test:contact:1.2.3.4"))
	assert.Equal(t, time.Hour, mr.TTL("test:contact:1.2.3.4"))

	count, _, err = store.Incr(ctx, "contact:1.2.3.4", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	mr.FastForward(time.Hour + time.Second)

	count, _, err = store.Incr(ctx, "contact:1.2.3.4", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRedisStoreRepairsMissingExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set("test:k", "3"))

	count, ttl, err := store.Incr(context.Background(), "k", time.Minute)

	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.Equal(t, time.Minute, ttl)
	assert.Equal(t, time.Minute, mr.TTL("test:k"))
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	_, _, err := store.Incr(context.Background(), "k", time.Minute)
	assert.Error(t, err)
}

func TestLimiterSharedAcrossReplicas(t *testing.T) {
	mr := miniredis.RunT(t)
	rate := Rate{Limit: 2, Window: time.Hour}

	clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer clientA.Close()
	defer clientB.Close()

	replicaA := NewLimiter(NewRedisStore(clientA, "rl:"), "contact", rate)
	replicaB := NewLimiter(NewRedisStore(clientB, "rl:"), "contact", rate)
	ctx := context.Background()

	d, err := replicaA.Allow(ctx, "9.9.9.9")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, _ = replicaB.Allow(ctx, "9.9.9.9")
	assert.True(t, d.Allowed)

	d, _ = replicaA.Allow(ctx, "9.9.9.9")
	assert.False(t, d.Allowed)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
}
