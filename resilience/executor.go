package resilience

import (
	"context"
	"time"
)

// Executor composes resilience patterns for one provider's live fetches.
type Executor struct {
	breaker     *Breaker
	retry       *Retry
	rateLimiter *RateLimiter
	bulkhead    *Bulkhead
	timeout     *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an executor from the given patterns. Patterns that are
// not configured are skipped.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithBreaker gates execution on the circuit breaker.
func WithBreaker(b *Breaker) ExecutorOption {
	return func(e *Executor) {
		e.breaker = b
	}
}

// WithRetry retries transient failures inside the breaker.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRateLimiter bounds the call rate before anything else runs.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead caps in-flight calls.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout bounds each individual attempt.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// Breaker returns the configured breaker, if any.
func (e *Executor) Breaker() *Breaker {
	return e.breaker
}

// RateLimiter returns the configured rate limiter, if any.
func (e *Executor) RateLimiter() *RateLimiter {
	return e.rateLimiter
}

// Execute runs op through the configured patterns, composed by function
// wrapping from the inside out:
//
//	rate limiter -> bulkhead -> breaker -> retry -> timeout -> op
//
// The breaker wraps the whole retry loop, so a logical request counts toward
// breaker state once, by its final outcome, not once per retry attempt.
// Timeout is innermost so each attempt gets its own deadline.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	execute := op

	if e.timeout != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.retry != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.retry.Execute(ctx, inner)
		}
	}

	if e.breaker != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.breaker.Call(ctx, inner)
		}
	}

	if e.bulkhead != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.bulkhead.Execute(ctx, inner)
		}
	}

	if e.rateLimiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}
