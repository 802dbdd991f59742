package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/prfetch/resilience"
)

// BreakerSource exposes per-provider circuit breakers. *fetch.Orchestrator
// satisfies this.
type BreakerSource interface {
	Providers() []string
	Breaker(provider string) (*resilience.Breaker, bool)
}

// BreakerChecker reports provider availability from circuit breaker state:
// closed is healthy, half-open is degraded (the provider is being probed
// after a cooldown), open is unhealthy.
type BreakerChecker struct {
	source BreakerSource
}

// NewBreakerChecker creates a checker over the source's breakers.
func NewBreakerChecker(source BreakerSource) *BreakerChecker {
	return &BreakerChecker{source: source}
}

// Name returns the name of this checker.
func (c *BreakerChecker) Name() string {
	return "breakers"
}

// Check reports the worst breaker state across all providers seen so far.
func (c *BreakerChecker) Check(ctx context.Context) Result {
	providers := c.source.Providers()
	if len(providers) == 0 {
		return Healthy("no providers seen yet")
	}

	overall := StatusHealthy
	details := make(map[string]any, len(providers))
	var worst string

	for _, name := range providers {
		b, ok := c.source.Breaker(name)
		if !ok {
			continue
		}

		state := b.State()
		details[name] = state.String()

		var status Status
		switch state {
		case resilience.StateOpen:
			status = StatusUnhealthy
		case resilience.StateHalfOpen:
			status = StatusDegraded
		default:
			status = StatusHealthy
		}
		if status > overall {
			overall = status
			worst = name
		}
	}

	var result Result
	switch overall {
	case StatusHealthy:
		result = Healthy("all provider circuits closed")
	case StatusDegraded:
		result = Degraded(fmt.Sprintf("provider %s circuit half-open", worst))
	default:
		result = Unhealthy(fmt.Sprintf("provider %s circuit open", worst), nil)
	}
	return result.WithDetails(details)
}

var _ Checker = (*BreakerChecker)(nil)
