package observe

import (
	"context"
	"time"
)

// FetchFunc is the signature of an instrumented live fetch.
type FetchFunc func(ctx context.Context, meta RequestMeta) ([]byte, error)

// Middleware wraps a live fetch with tracing, metrics, and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe FetchFunc.
//   - Errors: errors from the wrapped function are recorded and propagated
//     unchanged.
type Middleware struct {
	tracer  Tracer
	metrics FetchMetrics
	logger  Logger
}

// NewMiddleware creates a Middleware from the given components.
func NewMiddleware(tracer Tracer, metrics FetchMetrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// MiddlewareFromObserver creates a Middleware wired to an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := NewFetchMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Wrap instruments fn with a span, fetch metrics, and a structured log line.
func (m *Middleware) Wrap(fn FetchFunc) FetchFunc {
	return func(ctx context.Context, meta RequestMeta) ([]byte, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		payload, err := fn(ctx, meta)
		duration := time.Since(start)

		m.tracer.EndSpan(span, err)
		m.metrics.FetchCompleted(ctx, meta, duration, err)

		logger := m.logger.WithRequest(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "diff fetch failed", fields...)
		} else {
			fields = append(fields, Field{Key: "bytes", Value: len(payload)})
			logger.Info(ctx, "diff fetch completed", fields...)
		}

		return payload, err
	}
}
