package resilience

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig configures the retry behavior. One immutable instance is
// shared across all calls.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt.
	// Zero means a single attempt with no retries.
	MaxRetries int

	// InitialDelay is the backoff before the first retry.
	// Default: 100ms
	InitialDelay time.Duration

	// MaxDelay caps the backoff between retries, before jitter.
	// Default: 30s
	MaxDelay time.Duration

	// Multiplier grows the backoff after each retry. Must exceed 1.0.
	// Default: 2.0
	Multiplier float64

	// JitterMax bounds the random additive jitter applied to each backoff.
	// Jitter is strictly additive so backoff never shrinks, but concurrent
	// callers never wake in lockstep. Negative disables jitter.
	// Default: 100ms
	JitterMax time.Duration

	// RetryIf decides whether an error is worth retrying. Terminal errors
	// (bad credentials, not found, malformed response) should return false
	// and short-circuit without waiting.
	// Default: all non-nil errors retry.
	RetryIf func(err error) bool

	// OnRetry is called before each backoff sleep.
	OnRetry func(attempt int, err error, delay time.Duration)

	// OnRecovered is called when a call succeeds after at least one retry,
	// with the 1-based attempt number that succeeded.
	OnRecovered func(attempt int)
}

// Retry executes operations with bounded retries and exponential backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a retry executor, applying defaults for zero fields.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 1.0 {
		config.Multiplier = 2.0
	}
	if config.JitterMax == 0 {
		config.JitterMax = 100 * time.Millisecond
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}

	return &Retry{config: config}
}

// Execute runs op until it succeeds, exhausts MaxRetries, or hits a
// non-retryable error. It never sleeps after the final attempt, and the
// backoff sleep aborts on context cancellation.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	delay := r.config.InitialDelay

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 && r.config.OnRecovered != nil {
				r.config.OnRecovered(attempt)
			}
			return nil
		}

		if !r.config.RetryIf(err) || attempt > r.config.MaxRetries {
			return err
		}

		wait := delay + r.jitter()
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, wait)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * r.config.Multiplier)
		if delay > r.config.MaxDelay {
			delay = r.config.MaxDelay
		}
	}
}

func (r *Retry) jitter() time.Duration {
	if r.config.JitterMax <= 0 {
		return 0
	}
	// #nosec G404 -- jitter is non-cryptographic timing variance.
	return time.Duration(rand.Int64N(int64(r.config.JitterMax)))
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
