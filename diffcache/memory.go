package diffcache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and single-process deployments.
//
// Expired entries are retained until invalidated so that GetStale can still
// serve them on the fallback path; only Invalidate removes data.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Get returns the entry if present and unexpired.
func (s *MemoryStore) Get(_ context.Context, key Key) (Entry, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key.String()]
	s.mu.RUnlock()

	if !ok || entry.Expired(s.now()) {
		return Entry{}, false
	}
	return entry, true
}

// GetStale returns the most recently cached entry under prefix, expired or not.
func (s *MemoryStore) GetStale(_ context.Context, prefix string) (Entry, bool) {
	if prefix == "" {
		return Entry{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		latest Entry
		found  bool
	)
	for k, entry := range s.entries {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if !found || entry.CachedAt.After(latest.CachedAt) {
			latest = entry
			found = true
		}
	}
	return latest, found
}

// Set stores a payload under key. A non-positive TTL is a no-op.
func (s *MemoryStore) Set(_ context.Context, key Key, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	entry := Entry{
		Payload:  append([]byte(nil), payload...),
		CachedAt: s.now().UTC(),
		TTL:      ttl,
	}

	s.mu.Lock()
	s.entries[key.String()] = entry
	s.mu.Unlock()
	return nil
}

// Invalidate removes every entry under prefix. Idempotent.
func (s *MemoryStore) Invalidate(_ context.Context, prefix string) error {
	if prefix == "" {
		return nil
	}

	s.mu.Lock()
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
	s.mu.Unlock()
	return nil
}

// Len returns the number of entries currently held, including expired ones.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
