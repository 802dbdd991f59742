// Package resilience guards live calls to git-hosting provider APIs.
//
// Providers are slow, rate-limited, or down more often than anyone would
// like, so every live fetch runs through a stack of composable patterns:
//
//   - Breaker: stops calling a provider that keeps failing, and probes it
//     again after a cooldown (closed/open/half-open).
//
//   - Retry: retries transient failures with exponential backoff and bounded
//     additive jitter. Terminal failures (bad credentials, not found) return
//     immediately.
//
//   - RateLimiter: token bucket keeping us inside a provider's API budget.
//
//   - Bulkhead: caps concurrent live fetches per provider.
//
//   - Timeout: bounds a single attempt.
//
// Patterns compose by function wrapping rather than a single state machine,
// so each half stays independently testable. The breaker wraps the retry
// loop: a logical request counts toward breaker state once, by its ultimate
// outcome, no matter how many retry attempts it took.
//
//	breaker := resilience.NewBreaker(resilience.BreakerConfig{
//	    FailureThreshold: 5,
//	    OpenTimeout:      30 * time.Second,
//	})
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxRetries:   3,
//	    InitialDelay: 100 * time.Millisecond,
//	})
//	exec := resilience.NewExecutor(
//	    resilience.WithBreaker(breaker),
//	    resilience.WithRetry(retry),
//	)
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return fetchFromProvider(ctx)
//	})
package resilience
