package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// FetchMetrics records every state transition and outcome in the fetch core.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic and must return quickly.
type FetchMetrics interface {
	// CacheHit records a fresh cache hit.
	CacheHit(ctx context.Context, meta RequestMeta)

	// CacheMiss records a miss that triggered a live fetch.
	CacheMiss(ctx context.Context, meta RequestMeta)

	// StaleServed records a stale entry served on the fallback path.
	StaleServed(ctx context.Context, meta RequestMeta)

	// FetchCompleted records a live fetch outcome with its duration.
	FetchCompleted(ctx context.Context, meta RequestMeta, duration time.Duration, err error)

	// RetryRecovered records a fetch that succeeded on a retry, with the
	// 1-based attempt that succeeded.
	RetryRecovered(ctx context.Context, meta RequestMeta, attempt int)

	// BreakerTransition records a circuit breaker state change.
	BreakerTransition(ctx context.Context, provider, from, to string)

	// BreakerState records the current breaker state for a provider as a
	// gauge: 0=closed, 1=open, 2=half-open.
	BreakerState(ctx context.Context, provider string, state int64)
}

// fetchMetrics is the OpenTelemetry implementation of FetchMetrics.
type fetchMetrics struct {
	cacheHits          metric.Int64Counter
	cacheMisses        metric.Int64Counter
	staleServed        metric.Int64Counter
	fetchTotal         metric.Int64Counter
	fetchErrors        metric.Int64Counter
	fetchDuration      metric.Float64Histogram
	retryRecovered     metric.Int64Counter
	breakerTransitions metric.Int64Counter
	breakerState       metric.Int64Gauge
}

// NewFetchMetrics creates a FetchMetrics backed by the given meter.
func NewFetchMetrics(meter metric.Meter) (FetchMetrics, error) {
	m := &fetchMetrics{}
	var err error

	if m.cacheHits, err = meter.Int64Counter(
		"diff.cache.hits",
		metric.WithDescription("Diff cache hits"),
		metric.WithUnit("{hit}"),
	); err != nil {
		return nil, err
	}

	if m.cacheMisses, err = meter.Int64Counter(
		"diff.cache.misses",
		metric.WithDescription("Diff cache misses"),
		metric.WithUnit("{miss}"),
	); err != nil {
		return nil, err
	}

	if m.staleServed, err = meter.Int64Counter(
		"diff.cache.stale_served",
		metric.WithDescription("Stale diffs served while a provider was unavailable"),
		metric.WithUnit("{hit}"),
	); err != nil {
		return nil, err
	}

	if m.fetchTotal, err = meter.Int64Counter(
		"diff.fetch.total",
		metric.WithDescription("Live diff fetches attempted"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}

	if m.fetchErrors, err = meter.Int64Counter(
		"diff.fetch.errors",
		metric.WithDescription("Live diff fetches that ultimately failed"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.fetchDuration, err = meter.Float64Histogram(
		"diff.fetch.duration_ms",
		metric.WithDescription("Live diff fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.retryRecovered, err = meter.Int64Counter(
		"diff.retry.recovered",
		metric.WithDescription("Fetches that succeeded after at least one retry"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}

	if m.breakerTransitions, err = meter.Int64Counter(
		"diff.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	); err != nil {
		return nil, err
	}

	if m.breakerState, err = meter.Int64Gauge(
		"diff.breaker.state",
		metric.WithDescription("Current breaker state per provider (0=closed, 1=open, 2=half-open)"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *fetchMetrics) CacheHit(ctx context.Context, meta RequestMeta) {
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(meta.attributes()...))
}

func (m *fetchMetrics) CacheMiss(ctx context.Context, meta RequestMeta) {
	m.cacheMisses.Add(ctx, 1, metric.WithAttributes(meta.attributes()...))
}

func (m *fetchMetrics) StaleServed(ctx context.Context, meta RequestMeta) {
	m.staleServed.Add(ctx, 1, metric.WithAttributes(meta.attributes()...))
}

func (m *fetchMetrics) FetchCompleted(ctx context.Context, meta RequestMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.fetchTotal.Add(ctx, 1, opt)
	if err != nil {
		m.fetchErrors.Add(ctx, 1, opt)
	}
	m.fetchDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *fetchMetrics) RetryRecovered(ctx context.Context, meta RequestMeta, attempt int) {
	attrs := append(meta.attributes(), attribute.Int("diff.attempt", attempt))
	m.retryRecovered.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *fetchMetrics) BreakerTransition(ctx context.Context, provider, from, to string) {
	m.breakerTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("diff.provider", provider),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *fetchMetrics) BreakerState(ctx context.Context, provider string, state int64) {
	m.breakerState.Record(ctx, state, metric.WithAttributes(
		attribute.String("diff.provider", provider),
	))
}

// noopMetrics is a FetchMetrics implementation that does nothing.
type noopMetrics struct{}

// NopFetchMetrics returns a FetchMetrics that discards everything.
func NopFetchMetrics() FetchMetrics {
	return &noopMetrics{}
}

func (noopMetrics) CacheHit(context.Context, RequestMeta)                              {}
func (noopMetrics) CacheMiss(context.Context, RequestMeta)                             {}
func (noopMetrics) StaleServed(context.Context, RequestMeta)                           {}
func (noopMetrics) FetchCompleted(context.Context, RequestMeta, time.Duration, error)  {}
func (noopMetrics) RetryRecovered(context.Context, RequestMeta, int)                   {}
func (noopMetrics) BreakerTransition(context.Context, string, string, string)          {}
func (noopMetrics) BreakerState(context.Context, string, int64)                        {}
