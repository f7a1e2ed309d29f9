package limiter

import (
	"context"
	"strings"
	"time"
)

// DefaultMaxAttempts caps field regenerations per (tenant, mission, field)
// unless configured otherwise. With no reset window the cap is permanent.
const DefaultMaxAttempts = 3

// RegenConfig configures the regeneration limiter.
type RegenConfig struct {
	MaxAttempts int           // attempts allowed per key (default 3)
	ResetWindow time.Duration // 0 means the cap never resets
}

// RegenLimiter bounds how many times a generated mission field may be
// regenerated. It holds no state beyond its configuration and store
// reference; all counting lives in the injected CounterStore.
type RegenLimiter struct {
	config RegenConfig
	store  CounterStore
	now    func() time.Time
}

// NewRegenLimiter creates a regeneration limiter over store.
func NewRegenLimiter(store CounterStore, config RegenConfig) *RegenLimiter {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	return &RegenLimiter{
		config: config,
		store:  store,
		now:    time.Now,
	}
}

// Allow records a regeneration attempt for (tenant, mission, field) and
// reports whether it is within the cap. Denials never mutate the counter.
func (l *RegenLimiter) Allow(ctx context.Context, tenantID, missionID, field string) (Verdict, error) {
	return l.store.Increment(ctx, regenKey(tenantID, missionID, field), l.config.MaxAttempts, l.now(), l.config.ResetWindow)
}

// Count returns the current attempt count without recording an attempt.
// A count whose reset window has lapsed reads as 0 and the stale entry is
// dropped, so the next attempt starts a fresh window.
func (l *RegenLimiter) Count(ctx context.Context, tenantID, missionID, field string) (int, error) {
	return l.store.Get(ctx, regenKey(tenantID, missionID, field), l.now(), l.config.ResetWindow)
}

// Reset clears the attempt count for (tenant, mission, field).
func (l *RegenLimiter) Reset(ctx context.Context, tenantID, missionID, field string) error {
	return l.store.Reset(ctx, regenKey(tenantID, missionID, field))
}

// ClearAll empties the underlying store. Administrative resets only.
func (l *RegenLimiter) ClearAll(ctx context.Context) error {
	return l.store.Clear(ctx)
}

// MaxAttempts returns the configured cap.
func (l *RegenLimiter) MaxAttempts() int {
	return l.config.MaxAttempts
}

func regenKey(tenantID, missionID, field string) string {
	return strings.Join([]string{tenantID, missionID, field}, "/")
}
