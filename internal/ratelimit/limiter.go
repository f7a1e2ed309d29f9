package ratelimit

import (
	"sync"
	"time"
)

// Default intake policy: 5 requests per rolling minute per key.
const (
	DefaultLimit  = 5
	DefaultWindow = time.Minute
)

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// SlidingWindow is a true sliding-window rate limiter: it keeps the ordered
// request timestamps for each key and continuously evicts those older than
// the window, so bursts straddling a window boundary are still rejected
// rather than reset to zero.
//
// State is process-local and serialized by a mutex; multi-instance
// deployments need a shared store in front of this.
type SlidingWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

// Config configures a sliding-window limiter.
type Config struct {
	Limit  int           // requests allowed per window (default 5)
	Window time.Duration // rolling window length (default 1m)
}

// NewSlidingWindow creates a limiter with the given config, applying
// defaults for unset fields.
func NewSlidingWindow(config Config) *SlidingWindow {
	if config.Limit <= 0 {
		config.Limit = DefaultLimit
	}
	if config.Window <= 0 {
		config.Window = DefaultWindow
	}
	return &SlidingWindow{
		limit:  config.Limit,
		window: config.Window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

// Check records a request for key if it is within the limit and reports the
// decision. Expired timestamps are pruned on every call, including denials.
func (l *SlidingWindow) Check(key string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := prune(l.hits[key], now, l.window)

	if len(kept) >= l.limit {
		l.hits[key] = kept
		oldest := kept[0]
		retryAfter := l.window - now.Sub(oldest)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: retryAfter,
			ResetAt:    oldest.Add(l.window),
		}
	}

	kept = append(kept, now)
	l.hits[key] = kept

	remaining := l.limit - len(kept)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   true,
		Remaining: remaining,
		ResetAt:   kept[0].Add(l.window),
	}
}

// Reset clears the window for one key.
func (l *SlidingWindow) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
}

// ResetAll clears every window.
func (l *SlidingWindow) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits = make(map[string][]time.Time)
}

// prune drops timestamps that have aged out of the window. Timestamps are
// appended in order, so the first surviving index bounds the copy.
func prune(ts []time.Time, now time.Time, window time.Duration) []time.Time {
	cut := 0
	for cut < len(ts) && now.Sub(ts[cut]) >= window {
		cut++
	}
	if cut == 0 {
		return ts
	}
	kept := make([]time.Time, len(ts)-cut)
	copy(kept, ts[cut:])
	return kept
}
