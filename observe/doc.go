// Package observe provides observability primitives for the diff fetch core.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. The fetch orchestrator reports cache hits and
// misses, retry recoveries, breaker transitions, and fetch outcomes through
// FetchMetrics; everything is exported via OpenTelemetry.
package observe
