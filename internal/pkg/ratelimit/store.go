package ratelimit

import (
	"context"
	"sync"
	"time"

	"amenpay/internal/pkg/clock"
)

// Store is a fixed-window counter over a shared key-value cache. Increment
// starts the decay window on the first hit of a bucket; Count never mutates.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
	Count(ctx context.Context, key string) (count int64, ttl time.Duration, err error)
	Clear(ctx context.Context, key string) error
}

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

// MemoryStore is the in-process implementation used by tests and single-node
// deployments; window arithmetic runs against an injected clock.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	clock   clock.Clock
}

func NewMemoryStore(c clock.Clock) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		clock:   c,
	}
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	entry, ok := s.entries[key]
	if !ok || !entry.expiresAt.After(now) {
		entry = &memoryEntry{expiresAt: now.Add(window)}
		s.entries[key] = entry
	}
	entry.count++
	return entry.count, entry.expiresAt.Sub(now), nil
}

func (s *MemoryStore) Count(_ context.Context, key string) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	entry, ok := s.entries[key]
	if !ok || !entry.expiresAt.After(now) {
		return 0, 0, nil
	}
	return entry.count, entry.expiresAt.Sub(now), nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
