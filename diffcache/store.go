package diffcache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for cache operations.
var (
	ErrStoreClosed = errors.New("diffcache: store is closed")
	ErrEmptyKey    = errors.New("diffcache: key is empty")
)

// Store is the cache contract the fetch orchestrator depends on.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Get never errors: backend failures degrade to a miss so cache
//     unavailability falls through to a live fetch.
//   - GetStale ignores TTL expiry and returns the most recent entry whose key
//     matches the non-commit-qualified prefix. Fallback path only.
//   - Set failures are best-effort from the caller's perspective; the payload
//     was already fetched successfully.
//   - Invalidate is idempotent and safe on a non-existent prefix.
type Store interface {
	Get(ctx context.Context, key Key) (Entry, bool)
	GetStale(ctx context.Context, prefix string) (Entry, bool)
	Set(ctx context.Context, key Key, payload []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, prefix string) error
}
