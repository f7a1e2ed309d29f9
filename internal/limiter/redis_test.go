package limiter

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisStore skips unless AEGIS_TEST_REDIS_ADDR points at a reachable
// server, so the suite stays green without one.
func redisStore(t *testing.T) *RedisCounterStore {
	t.Helper()
	addr := os.Getenv("AEGIS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("AEGIS_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	store := NewRedisCounterStore(client, "aegis_test:")
	require.NoError(t, store.Clear(context.Background()))
	t.Cleanup(func() { store.Clear(context.Background()) })
	return store
}

func TestRedisCounterStore_CapSequence(t *testing.T) {
	store := redisStore(t)
	ctx := context.Background()
	now := time.Now()

	for i := 1; i <= 3; i++ {
		verdict, err := store.Increment(ctx, "t1/m1/brief", 3, now, 0)
		require.NoError(t, err)
		assert.True(t, verdict.Allowed, "attempt %d", i)
		assert.Equal(t, i, verdict.Entry.Count, "attempt %d", i)
	}

	verdict, err := store.Increment(ctx, "t1/m1/brief", 3, now, 0)
	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, 3, verdict.Entry.Count, "denied increment rolls back")

	count, err := store.Get(ctx, "t1/m1/brief", now, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRedisCounterStore_ResetAndClear(t *testing.T) {
	store := redisStore(t)
	ctx := context.Background()
	now := time.Now()

	_, err := store.Increment(ctx, "a", 3, now, 0)
	require.NoError(t, err)
	_, err = store.Increment(ctx, "b", 3, now, 0)
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx, "a"))
	count, err := store.Get(ctx, "a", now, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.Clear(ctx))
	count, err = store.Get(ctx, "b", now, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
