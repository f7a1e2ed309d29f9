package limiter

import (
	"context"
	"time"
)

// CounterEntry is the per-key state held by a counter store. FirstAttemptAt
// anchors the reset window; it is preserved across increments and only
// replaced when a fresh window starts.
type CounterEntry struct {
	Count          int       `json:"count"`
	FirstAttemptAt time.Time `json:"first_attempt_at"`
}

// Verdict is the outcome of an increment attempt. Entry reflects the state
// observed by this call: unchanged on denial, freshly incremented on success.
type Verdict struct {
	Allowed bool
	Entry   CounterEntry
}

// CounterStore is a keyed, atomically-incrementable counter with optional
// time-window expiry. A single-process map and a shared Redis counter both
// satisfy it, so multi-instance deployments can swap stores without touching
// the limiter.
//
// Increment semantics for (key, max, now, resetWindow):
//   - no entry, or resetWindow > 0 and the entry is older than resetWindow:
//     install {Count: 1, FirstAttemptAt: now}, allow.
//   - entry at or above max: deny without mutating the entry.
//   - otherwise: increment Count, preserve FirstAttemptAt, allow.
//
// Concurrent increments on one key must serialize: no lost updates, and no
// observer ever sees Count exceed max.
type CounterStore interface {
	Increment(ctx context.Context, key string, max int, now time.Time, resetWindow time.Duration) (Verdict, error)

	// Get returns the current count for key, applying the expiry check.
	// A stale entry is removed so the next increment starts a clean window.
	Get(ctx context.Context, key string, now time.Time, resetWindow time.Duration) (int, error)

	// Reset deletes the entry for key.
	Reset(ctx context.Context, key string) error

	// Clear empties the store. Administrative use only.
	Clear(ctx context.Context) error
}
