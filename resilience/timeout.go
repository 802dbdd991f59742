package resilience

import (
	"context"
	"errors"
	"time"
)

// TimeoutConfig configures the per-attempt timeout.
type TimeoutConfig struct {
	// Timeout is the maximum duration for a single attempt.
	// Default: 30 seconds
	Timeout time.Duration
}

// Timeout bounds a single attempt. Backoff alone does not cap wall-clock
// time, so the executor wraps each attempt with one of these.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Timeout{config: config}
}

// Execute runs op under a deadline. A deadline hit surfaces as ErrTimeout,
// which classifies as a transient failure; caller cancellation surfaces as
// ctx.Err() unchanged.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	err := op(attemptCtx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return ErrTimeout
	}
	return err
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}
