package fetch

import (
	"sync"

	"github.com/jonwraymond/prfetch/resilience"
)

// registry owns the mapping from provider name to resilience executor.
// Breakers are long-lived: one per provider, created on first use and shared
// by every in-flight request for that provider.
type registry struct {
	mu        sync.Mutex
	executors map[string]*resilience.Executor
	build     func(provider string) *resilience.Executor
}

func newRegistry(build func(provider string) *resilience.Executor) *registry {
	return &registry{
		executors: make(map[string]*resilience.Executor),
		build:     build,
	}
}

// executorFor returns the provider's executor, creating it on first use.
func (r *registry) executorFor(provider string) *resilience.Executor {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.executors[provider]; ok {
		return e
	}
	e := r.build(provider)
	r.executors[provider] = e
	return e
}

// breakerFor returns the provider's breaker without creating one.
func (r *registry) breakerFor(provider string) (*resilience.Breaker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.executors[provider]
	if !ok || e.Breaker() == nil {
		return nil, false
	}
	return e.Breaker(), true
}

// providers returns the names of all providers seen so far.
func (r *registry) providers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.executors))
	for name := range r.executors {
		names = append(names, name)
	}
	return names
}

// reset forces every breaker back to closed. Test and operator hook.
func (r *registry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.executors {
		if b := e.Breaker(); b != nil {
			b.Reset()
		}
	}
}
