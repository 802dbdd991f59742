package diffcache

import (
	"time"

	"github.com/jonwraymond/prfetch/provider"
)

// TTLPolicy maps PR lifecycle state to cache TTL. It is data, not behavior:
// the orchestrator consults it when writing an entry, and tests exercise the
// table directly.
type TTLPolicy struct {
	// ByState holds the TTL for each lifecycle state.
	ByState map[provider.State]time.Duration

	// StaleAfter is how long a PR can go untouched before its diff is
	// considered low-churn and gets StaleTTL instead of the state TTL.
	// Applies to open and draft PRs only; merged and closed diffs are frozen.
	StaleAfter time.Duration

	// StaleTTL is the TTL for untouched open/draft PRs.
	StaleTTL time.Duration
}

// DefaultTTLPolicy returns the standard policy:
// open=5m, draft=2m, merged=1h, closed=1h, untouched >7d = 30m.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		ByState: map[provider.State]time.Duration{
			provider.StateOpen:   5 * time.Minute,
			provider.StateDraft:  2 * time.Minute,
			provider.StateMerged: time.Hour,
			provider.StateClosed: time.Hour,
		},
		StaleAfter: 7 * 24 * time.Hour,
		StaleTTL:   30 * time.Minute,
	}
}

// TTLFor returns the TTL for a diff given the PR state and last activity.
// A zero updatedAt means activity is unknown and the state TTL applies.
func (p TTLPolicy) TTLFor(state provider.State, updatedAt, now time.Time) time.Duration {
	ttl, ok := p.ByState[state]
	if !ok {
		ttl = 5 * time.Minute
	}

	if state != provider.StateOpen && state != provider.StateDraft {
		return ttl
	}
	if p.StaleAfter <= 0 || p.StaleTTL <= 0 || updatedAt.IsZero() {
		return ttl
	}
	if now.Sub(updatedAt) > p.StaleAfter {
		return p.StaleTTL
	}
	return ttl
}
