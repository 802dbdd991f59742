package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestExecutor_NoPatternsRunsOperation(t *testing.T) {
	e := NewExecutor()

	invoked := false
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		invoked = true
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if !invoked {
		t.Error("operation was not invoked")
	}
}

func TestExecutor_RetryInsideBreaker(t *testing.T) {
	cb := NewBreaker(BreakerConfig{FailureThreshold: 2, OpenTimeout: time.Hour})
	e := NewExecutor(
		WithBreaker(cb),
		WithRetry(NewRetry(RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, JitterMax: -1})),
	)

	attempts := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return errUpstream
	})

	if !errors.Is(err, errUpstream) {
		t.Errorf("Execute() = %v, want %v", err, errUpstream)
	}
	if attempts != 4 {
		t.Errorf("attempts = %d, want 4 (retries ran inside the breaker)", attempts)
	}
	if got := cb.Snapshot().Failures; got != 1 {
		t.Errorf("breaker failures = %d, want 1 (one logical request)", got)
	}
}

func TestExecutor_OpenBreakerSkipsRetry(t *testing.T) {
	cb := NewBreaker(BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour})
	e := NewExecutor(
		WithBreaker(cb),
		WithRetry(NewRetry(RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, JitterMax: -1})),
	)

	_ = e.Execute(context.Background(), func(ctx context.Context) error { return errUpstream })

	attempts := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		return errUpstream
	})

	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() = %v, want ErrCircuitOpen", err)
	}
	if attempts != 0 {
		t.Errorf("attempts = %d, want 0 (open breaker rejects before retry)", attempts)
	}
}

func TestExecutor_RateLimiterOutermost(t *testing.T) {
	cb := NewBreaker(BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour})
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})
	e := NewExecutor(WithBreaker(cb), WithRateLimiter(rl))

	_ = e.Execute(context.Background(), func(ctx context.Context) error { return nil })

	err := e.Execute(context.Background(), func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("Execute() = %v, want ErrRateLimitExceeded", err)
	}

	// Local throttling is not upstream failure: breaker must stay closed
	// and uncounted, since the limiter rejects before the breaker runs.
	if got := cb.Snapshot().Failures; got != 0 {
		t.Errorf("breaker failures after throttle = %d, want 0", got)
	}
}

func TestExecutor_TimeoutBoundsEachAttempt(t *testing.T) {
	e := NewExecutor(
		WithRetry(NewRetry(RetryConfig{MaxRetries: 1, InitialDelay: time.Millisecond, JitterMax: -1})),
		WithTimeout(10*time.Millisecond),
	)

	attempts := 0
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts++
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Execute() = %v, want ErrTimeout", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2 (timeout is retryable per attempt)", attempts)
	}
}

func TestExecutor_Accessors(t *testing.T) {
	cb := NewBreaker(BreakerConfig{})
	rl := NewRateLimiter(RateLimiterConfig{})
	e := NewExecutor(WithBreaker(cb), WithRateLimiter(rl))

	if e.Breaker() != cb {
		t.Error("Breaker() did not return the configured breaker")
	}
	if e.RateLimiter() != rl {
		t.Error("RateLimiter() did not return the configured limiter")
	}
}
