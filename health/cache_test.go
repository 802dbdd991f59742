package health

import (
	"context"
	"errors"
	"testing"
)

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(context.Context) error {
	return p.err
}

// TestCachePingChecker_Reachable verifies a healthy backend.
func TestCachePingChecker_Reachable(t *testing.T) {
	c := NewCachePingChecker("valkey", &stubPinger{})

	if c.Name() != "valkey" {
		t.Errorf("expected name 'valkey', got %q", c.Name())
	}

	result := c.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("expected healthy, got %v", result.Status)
	}
}

// TestCachePingChecker_UnreachableIsDegraded verifies a down backend degrades
// rather than fails: the cache is fail-open and live fetches still work.
func TestCachePingChecker_UnreachableIsDegraded(t *testing.T) {
	cause := errors.New("connection refused")
	c := NewCachePingChecker("valkey", &stubPinger{err: cause})

	result := c.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("expected degraded, got %v", result.Status)
	}
	if !errors.Is(result.Error, cause) {
		t.Errorf("expected cause in result, got %v", result.Error)
	}
}
