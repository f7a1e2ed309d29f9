package limiter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCounterStore_CapSequence(t *testing.T) {
	store := NewMemoryCounterStore()
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	// First three attempts pass with counts 1, 2, 3.
	for i := 1; i <= 3; i++ {
		verdict, err := store.Increment(ctx, "t1/m1/brief", 3, now, 0)
		require.NoError(t, err)
		assert.True(t, verdict.Allowed, "attempt %d", i)
		assert.Equal(t, i, verdict.Entry.Count, "attempt %d", i)
	}

	// Fourth attempt is denied and the entry stays at 3.
	verdict, err := store.Increment(ctx, "t1/m1/brief", 3, now, 0)
	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, 3, verdict.Entry.Count)

	count, err := store.Get(ctx, "t1/m1/brief", now, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMemoryCounterStore_PreservesFirstAttemptAt(t *testing.T) {
	store := NewMemoryCounterStore()
	ctx := context.Background()
	first := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	verdict, err := store.Increment(ctx, "k", 3, first, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, first, verdict.Entry.FirstAttemptAt)

	verdict, err = store.Increment(ctx, "k", 3, first.Add(10*time.Second), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, first, verdict.Entry.FirstAttemptAt, "anchor must survive increments")
	assert.Equal(t, 2, verdict.Entry.Count)
}

func TestMemoryCounterStore_ResetWindowExpiry(t *testing.T) {
	store := NewMemoryCounterStore()
	ctx := context.Background()
	first := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := store.Increment(ctx, "k", 3, first, time.Minute)
		require.NoError(t, err)
	}
	verdict, err := store.Increment(ctx, "k", 3, first, time.Minute)
	require.NoError(t, err)
	require.False(t, verdict.Allowed)

	// Past the window, a fresh entry is installed.
	later := first.Add(time.Minute + time.Millisecond)
	verdict, err = store.Increment(ctx, "k", 3, later, time.Minute)
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
	assert.Equal(t, 1, verdict.Entry.Count)
	assert.Equal(t, later, verdict.Entry.FirstAttemptAt)
}

func TestMemoryCounterStore_GetDropsStaleEntry(t *testing.T) {
	store := NewMemoryCounterStore()
	ctx := context.Background()
	first := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	_, err := store.Increment(ctx, "k", 3, first, time.Minute)
	require.NoError(t, err)

	later := first.Add(2 * time.Minute)
	count, err := store.Get(ctx, "k", later, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// The stale entry was removed, so the next increment starts clean.
	verdict, err := store.Increment(ctx, "k", 3, later, time.Minute)
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
	assert.Equal(t, 1, verdict.Entry.Count)
}

func TestMemoryCounterStore_ResetAndClear(t *testing.T) {
	store := NewMemoryCounterStore()
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

	count, err = store.Get(ctx, "b", now, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, store.Clear(ctx))
	count, err = store.Get(ctx, "b", now, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMemoryCounterStore_ConcurrentIncrements(t *testing.T) {
	store := NewMemoryCounterStore()
	ctx := context.Background()
	now := time.Now()

	const goroutines = 50
	const max = 3

	var allowed int64
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			verdict, err := store.Increment(ctx, "shared", max, now, 0)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if verdict.Entry.Count > max {
				t.Errorf("observed count %d above max %d", verdict.Entry.Count, max)
			}
			if verdict.Allowed {
				atomic.AddInt64(&allowed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(max), allowed, "exactly max increments may win")

	count, err := store.Get(ctx, "shared", now, 0)
	require.NoError(t, err)
	assert.Equal(t, max, count)
}
