// Package fetch orchestrates resilient pull-request diff retrieval.
//
// The Orchestrator is the single entry point callers invoke. For each request
// it composes the cache, the per-provider circuit breaker, and the retry
// executor in a fixed layering order:
//
//	cache -> breaker -> retry -> provider
//
// with an equally fixed fallback order when things go wrong:
//
//	live result -> stale cache -> classified error
//
// A fresh cache hit returns immediately without touching the network or the
// breaker. On a miss, the live fetch runs through the provider's resilience
// executor; a success is written back to the cache with a TTL derived from
// the PR's lifecycle state. When the breaker is open, the orchestrator falls
// back to the most recent stale entry for the PR, annotated as stale so the
// boundary layer can tell the user. Only when no stale data exists does the
// caller see an error, and that error always carries a Kind and, where
// retrying can help, a RetryAfter hint.
//
// Concurrent fetches for the same PR and commit may each reach the provider;
// enable WithSingleFlight to coalesce them into one upstream call.
package fetch
