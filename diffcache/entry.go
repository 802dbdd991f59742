package diffcache

import "time"

// Entry is an immutable cached diff. Created on a successful fetch, read
// until expiry, removed by invalidation or backend TTL eviction.
type Entry struct {
	Payload  []byte
	CachedAt time.Time
	TTL      time.Duration
}

// ExpiresAt returns the instant the entry stops being fresh.
func (e Entry) ExpiresAt() time.Time {
	return e.CachedAt.Add(e.TTL)
}

// Expired reports whether the entry is past its TTL at the given instant.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt())
}

// Age returns how long ago the entry was cached. Callers serving stale data
// use this to tell users how old the payload is.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CachedAt)
}
