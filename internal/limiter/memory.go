package limiter

import (
	"context"
	"sync"
	"time"
)

// MemoryCounterStore is a process-local CounterStore backed by a mutex-guarded
// map. State lives for the process lifetime; multi-instance deployments must
// use a shared store instead.
type MemoryCounterStore struct {
	mu      sync.Mutex
	entries map[string]CounterEntry
}

// NewMemoryCounterStore creates an empty in-memory counter store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		entries: make(map[string]CounterEntry),
	}
}

// Increment applies the counter contract atomically for key.
func (s *MemoryCounterStore) Increment(ctx context.Context, key string, max int, now time.Time, resetWindow time.Duration) (Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || expired(entry, now, resetWindow) {
		entry = CounterEntry{Count: 1, FirstAttemptAt: now}
		s.entries[key] = entry
		return Verdict{Allowed: true, Entry: entry}, nil
	}

	if entry.Count >= max {
		return Verdict{Allowed: false, Entry: entry}, nil
	}

	entry.Count++
	s.entries[key] = entry
	return Verdict{Allowed: true, Entry: entry}, nil
}

// Get returns the current count for key. A stale entry is deleted so a
// subsequent increment starts a clean window.
func (s *MemoryCounterStore) Get(ctx context.Context, key string, now time.Time, resetWindow time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return 0, nil
	}
	if expired(entry, now, resetWindow) {
		delete(s.entries, key)
		return 0, nil
	}
	return entry.Count, nil
}

// Reset deletes the entry for key.
func (s *MemoryCounterStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Clear empties the store.
func (s *MemoryCounterStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]CounterEntry)
	return nil
}

func expired(entry CounterEntry, now time.Time, resetWindow time.Duration) bool {
	return resetWindow > 0 && now.Sub(entry.FirstAttemptAt) > resetWindow
}
