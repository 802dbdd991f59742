package health

import (
	"context"
	"fmt"
)

// Pinger is a cache backend that can be pinged. *diffcache.ValkeyStore
// satisfies this.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CachePingChecker reports cache backend reachability. The cache is
// fail-open (reads degrade to misses and writes are skipped), so a down
// backend is degraded, not unhealthy: live fetches still work, only stale
// fallback and hit rates suffer.
type CachePingChecker struct {
	name   string
	pinger Pinger
}

// NewCachePingChecker creates a checker that pings the backend.
func NewCachePingChecker(name string, pinger Pinger) *CachePingChecker {
	return &CachePingChecker{name: name, pinger: pinger}
}

// Name returns the name of this checker.
func (c *CachePingChecker) Name() string {
	return c.name
}

// Check pings the backend.
func (c *CachePingChecker) Check(ctx context.Context) Result {
	if err := c.pinger.Ping(ctx); err != nil {
		result := Degraded(fmt.Sprintf("cache backend unreachable: %v", err))
		result.Error = err
		return result
	}
	return Healthy("cache backend reachable")
}

var _ Checker = (*CachePingChecker)(nil)
