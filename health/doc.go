// Package health reports the operational state of the diff fetch core.
//
// A Checker is any component that can report its health: the cache backend,
// each provider's circuit breaker, or anything a deployment wires in through
// CheckerFunc. Status is one of Healthy, Degraded, or Unhealthy.
//
// # Domain checkers
//
// BreakerChecker maps circuit breaker state onto health: a closed breaker is
// healthy, a half-open breaker is degraded (the provider is being probed),
// and an open breaker is unhealthy. CachePingChecker reports whether the
// cache backend answers a ping; because the cache is fail-open, a down
// backend is degraded rather than unhealthy.
//
//	agg := health.NewAggregator()
//	agg.Register("breakers", health.NewBreakerChecker(orch))
//	agg.Register("cache", health.NewCachePingChecker("valkey", store))
//
// # HTTP endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// registers /healthz (liveness), /readyz (readiness), and /health (detailed
// JSON) in the usual Kubernetes shape.
package health
