package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(limit int, window time.Duration) (*SlidingWindow, *time.Time) {
	l := NewSlidingWindow(Config{Limit: limit, Window: window})
	current := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestSlidingWindow_AdmitsUpToLimit(t *testing.T) {
	l, clock := newTestLimiter(5, time.Minute)

	for i, wantRemaining := range []int{4, 3, 2, 1, 0} {
		*clock = clock.Add(time.Second)
		decision := l.Check("tenant-a")
		assert.True(t, decision.Allowed, "call %d", i+1)
		assert.Equal(t, wantRemaining, decision.Remaining, "call %d", i+1)
	}

	// Sixth call within the window is denied with a positive retry hint.
	*clock = clock.Add(time.Second)
	decision := l.Check("tenant-a")
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))
}

func TestSlidingWindow_RecoversAfterWindow(t *testing.T) {
	l, clock := newTestLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		require.True(t, l.Check("k").Allowed)
	}
	require.False(t, l.Check("k").Allowed)

	*clock = clock.Add(time.Minute + time.Second)
	decision := l.Check("k")
	assert.True(t, decision.Allowed)
	assert.Equal(t, 4, decision.Remaining, "window fully drained")
}

func TestSlidingWindow_SlidesRatherThanResets(t *testing.T) {
	l, clock := newTestLimiter(3, time.Minute)
	start := *clock

	// Two early requests, one late in the window.
	require.True(t, l.Check("k").Allowed)
	*clock = start.Add(10 * time.Second)
	require.True(t, l.Check("k").Allowed)
	*clock = start.Add(55 * time.Second)
	require.True(t, l.Check("k").Allowed)

	// Just past the minute the first request has aged out, but the later
	// two still count: a burst at the boundary must not see a fresh bucket.
	*clock = start.Add(61 * time.Second)
	decision := l.Check("k")
	assert.True(t, decision.Allowed)

	decision = l.Check("k")
	assert.False(t, decision.Allowed, "window slides, it does not reset")
}

func TestSlidingWindow_DenialStillPrunes(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)
	start := *clock

	require.True(t, l.Check("k").Allowed)
	*clock = start.Add(30 * time.Second)
	require.True(t, l.Check("k").Allowed)

	*clock = start.Add(40 * time.Second)
	decision := l.Check("k")
	require.False(t, decision.Allowed)
	// ResetAt reflects the oldest surviving timestamp.
	assert.Equal(t, start.Add(time.Minute), decision.ResetAt)
	assert.Equal(t, 20*time.Second, decision.RetryAfter)

	// After the oldest entry ages out, a denial is no longer holding it.
	*clock = start.Add(61 * time.Second)
	decision = l.Check("k")
	assert.True(t, decision.Allowed)
	assert.Equal(t, start.Add(30*time.Second).Add(time.Minute), decision.ResetAt)
}

func TestSlidingWindow_ResetAndResetAll(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	require.True(t, l.Check("a").Allowed)
	require.True(t, l.Check("b").Allowed)
	require.False(t, l.Check("a").Allowed)

	l.Reset("a")
	assert.True(t, l.Check("a").Allowed)
	assert.False(t, l.Check("b").Allowed)

	l.ResetAll()
	assert.True(t, l.Check("a").Allowed)
	assert.True(t, l.Check("b").Allowed)
}

func TestSlidingWindow_Defaults(t *testing.T) {
	l := NewSlidingWindow(Config{})
	assert.Equal(t, DefaultLimit, l.limit)
	assert.Equal(t, DefaultWindow, l.window)
}

func TestSlidingWindow_ConcurrentChecks(t *testing.T) {
	l := NewSlidingWindow(Config{Limit: 10, Window: time.Minute})

	const goroutines = 100
	results := make(chan bool, goroutines)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			results <- l.Check("shared").Allowed
		}()
	}
	wg.Wait()
	close(results)

	allowed := 0
	for ok := range results {
		if ok {
			allowed++
		}
	}
	assert.Equal(t, 10, allowed, "exactly limit admissions under contention")
}
