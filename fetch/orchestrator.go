package fetch

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/prfetch/diffcache"
	"github.com/jonwraymond/prfetch/observe"
	"github.com/jonwraymond/prfetch/provider"
	"github.com/jonwraymond/prfetch/resilience"
)

// Result is the outcome of a successful GetDiff.
type Result struct {
	// Payload is the opaque diff content.
	Payload []byte

	// Stale is true when the payload came from an expired cache entry served
	// while the provider was unavailable. Boundary layers must surface this
	// to the user ("showing last-known data").
	Stale bool

	// CachedAt is when the payload was cached. Zero for a live fetch.
	CachedAt time.Time
}

// Config configures an Orchestrator. The zero value of every optional field
// gets a sensible default in NewOrchestrator; only Store is required.
type Config struct {
	// Store is the cache the orchestrator reads and writes. Required.
	Store diffcache.Store

	// TTL maps PR lifecycle state to cache TTL.
	// Default: diffcache.DefaultTTLPolicy().
	TTL diffcache.TTLPolicy

	// Retry is the shared retry policy for live fetches. When left entirely
	// zero, a default of 3 retries with 100ms initial backoff applies. A nil
	// RetryIf is wired to provider.Retryable so terminal provider errors
	// short-circuit.
	Retry resilience.RetryConfig

	// Breaker configures each provider's circuit breaker. Breakers are
	// created lazily, one per provider name, and never destroyed.
	Breaker resilience.BreakerConfig

	// TemporaryRetryAfter is the retry-after hint attached to temporary
	// errors (exhausted transient retries, local guard rejections).
	// Default: 5 seconds.
	TemporaryRetryAfter time.Duration

	// Metrics receives every cache, retry, and breaker observation.
	// Default: observe.NopFetchMetrics().
	Metrics observe.FetchMetrics

	// Logger receives warn-level lines for degraded cache operations.
	// Default: observe.NopLogger().
	Logger observe.Logger
}

// Option configures optional orchestrator behavior.
type Option func(*Orchestrator)

// WithSingleFlight coalesces concurrent fetches for the same commit-qualified
// key into one provider call. Off by default: without it, concurrent misses
// for the same PR may each reach the provider.
func WithSingleFlight() Option {
	return func(o *Orchestrator) {
		o.group = &singleflight.Group{}
	}
}

// WithRateLimit adds a per-provider token bucket in front of live fetches.
func WithRateLimit(cfg resilience.RateLimiterConfig) Option {
	return func(o *Orchestrator) {
		o.rateLimit = &cfg
	}
}

// WithBulkhead caps concurrent live fetches per provider.
func WithBulkhead(cfg resilience.BulkheadConfig) Option {
	return func(o *Orchestrator) {
		o.bulkhead = &cfg
	}
}

// WithAttemptTimeout bounds each individual fetch attempt. The retry backoff
// schedule bounds total retry time, but only a per-attempt deadline caps a
// hung provider call.
func WithAttemptTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.attemptTimeout = d
	}
}

// Orchestrator is the top-level fetch policy. It owns the per-provider
// breaker registry and a handle to the shared cache store; construct one at
// startup and share it across all callers.
type Orchestrator struct {
	store    diffcache.Store
	ttl      diffcache.TTLPolicy
	retryCfg resilience.RetryConfig
	breakCfg resilience.BreakerConfig
	tempWait time.Duration
	metrics  observe.FetchMetrics
	logger   observe.Logger

	registry *registry

	group          *singleflight.Group
	rateLimit      *resilience.RateLimiterConfig
	bulkhead       *resilience.BulkheadConfig
	attemptTimeout time.Duration
}

// NewOrchestrator creates an orchestrator, applying defaults for zero fields.
func NewOrchestrator(cfg Config, opts ...Option) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, errors.New("fetch: config missing cache store")
	}
	if cfg.TTL.ByState == nil {
		cfg.TTL = diffcache.DefaultTTLPolicy()
	}
	if retryUnset(cfg.Retry) {
		cfg.Retry.MaxRetries = 3
	}
	if cfg.Retry.RetryIf == nil {
		cfg.Retry.RetryIf = provider.Retryable
	}
	if cfg.TemporaryRetryAfter <= 0 {
		cfg.TemporaryRetryAfter = 5 * time.Second
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopFetchMetrics()
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	o := &Orchestrator{
		store:    cfg.Store,
		ttl:      cfg.TTL,
		retryCfg: cfg.Retry,
		breakCfg: cfg.Breaker,
		tempWait: cfg.TemporaryRetryAfter,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.registry = newRegistry(o.buildExecutor)

	return o, nil
}

// retryUnset reports whether the retry config was left entirely zero, as
// opposed to deliberately configured with MaxRetries: 0.
func retryUnset(cfg resilience.RetryConfig) bool {
	return cfg.MaxRetries == 0 &&
		cfg.InitialDelay == 0 &&
		cfg.MaxDelay == 0 &&
		cfg.Multiplier == 0 &&
		cfg.JitterMax == 0 &&
		cfg.RetryIf == nil
}

// buildExecutor assembles the resilience stack for one provider. The breaker
// state change hook feeds the transition counter and the per-provider gauge.
func (o *Orchestrator) buildExecutor(name string) *resilience.Executor {
	bcfg := o.breakCfg
	user := bcfg.OnStateChange
	bcfg.OnStateChange = func(from, to resilience.State) {
		ctx := context.Background()
		o.metrics.BreakerTransition(ctx, name, from.String(), to.String())
		o.metrics.BreakerState(ctx, name, int64(to))
		if user != nil {
			user(from, to)
		}
	}

	execOpts := []resilience.ExecutorOption{
		resilience.WithBreaker(resilience.NewBreaker(bcfg)),
		resilience.WithRetry(resilience.NewRetry(o.retryCfg)),
	}
	if o.rateLimit != nil {
		execOpts = append(execOpts, resilience.WithRateLimiter(resilience.NewRateLimiter(*o.rateLimit)))
	}
	if o.bulkhead != nil {
		execOpts = append(execOpts, resilience.WithBulkhead(resilience.NewBulkhead(*o.bulkhead)))
	}
	if o.attemptTimeout > 0 {
		execOpts = append(execOpts, resilience.WithTimeout(o.attemptTimeout))
	}

	return resilience.NewExecutor(execOpts...)
}

// GetDiff returns the diff for the identity, preferring the cache, then a
// live fetch, then stale cache, in that order. state and updatedAt drive the
// TTL of the cache write on a successful live fetch; the core does not track
// PR state itself.
func (o *Orchestrator) GetDiff(ctx context.Context, id provider.Identity, state provider.State, updatedAt time.Time, fetchFn provider.FetchFunc) (Result, error) {
	if err := id.Validate(); err != nil {
		return Result{}, err
	}

	meta := metaFor(id)
	key := diffcache.KeyFor(id)

	if entry, ok := o.store.Get(ctx, key); ok {
		o.metrics.CacheHit(ctx, meta)
		return Result{Payload: entry.Payload, CachedAt: entry.CachedAt}, nil
	}
	o.metrics.CacheMiss(ctx, meta)

	payload, err := o.fetchLive(ctx, id, meta, fetchFn)
	if err == nil {
		ttl := o.ttl.TTLFor(state, updatedAt, time.Now())
		if serr := o.store.Set(ctx, key, payload, ttl); serr != nil {
			o.logger.WithRequest(meta).Warn(ctx, "cache write failed",
				observe.Field{Key: "error", Value: serr.Error()},
			)
		}
		return Result{Payload: payload}, nil
	}

	if errors.Is(err, resilience.ErrCircuitOpen) {
		if entry, ok := o.store.GetStale(ctx, key.Prefix()); ok {
			o.metrics.StaleServed(ctx, meta)
			return Result{Payload: entry.Payload, Stale: true, CachedAt: entry.CachedAt}, nil
		}
		return Result{}, &Error{
			Kind:       KindUnavailable,
			Provider:   id.Provider,
			RetryAfter: o.openRetryAfter(id.Provider),
			Err:        err,
		}
	}

	return Result{}, o.classify(id.Provider, err)
}

// fetchLive runs the provider call through the resilience executor, with
// optional single-flight coalescing on the commit-qualified key.
func (o *Orchestrator) fetchLive(ctx context.Context, id provider.Identity, meta observe.RequestMeta, fetchFn provider.FetchFunc) ([]byte, error) {
	if o.group == nil {
		return o.execute(ctx, id, meta, fetchFn)
	}

	v, err, _ := o.group.Do(diffcache.KeyFor(id).String(), func() (any, error) {
		return o.execute(ctx, id, meta, fetchFn)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (o *Orchestrator) execute(ctx context.Context, id provider.Identity, meta observe.RequestMeta, fetchFn provider.FetchFunc) ([]byte, error) {
	exec := o.registry.executorFor(id.Provider)

	var payload []byte
	attempts := 0
	start := time.Now()

	err := exec.Execute(ctx, func(ctx context.Context) error {
		attempts++
		p, ferr := fetchFn(ctx, id)
		if ferr != nil {
			return ferr
		}
		payload = p
		return nil
	})

	// A breaker rejection never reached the provider; only real attempts
	// count toward fetch metrics.
	if attempts > 0 {
		o.metrics.FetchCompleted(ctx, meta, time.Since(start), err)
		if err == nil && attempts > 1 {
			o.metrics.RetryRecovered(ctx, meta, attempts)
		}
	}

	if err != nil {
		return nil, err
	}
	return payload, nil
}

// classify maps an execution failure to a caller-facing orchestrator error.
// Terminal provider classifications pass through unchanged in kind; transient
// failures that exhausted their retries, and local guard rejections, become
// temporary errors with a retry-after hint. Caller cancellation propagates
// as-is.
func (o *Orchestrator) classify(providerName string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, resilience.ErrRateLimitExceeded),
		errors.Is(err, resilience.ErrBulkheadFull),
		errors.Is(err, resilience.ErrTimeout):
		return &Error{Kind: KindTemporary, Provider: providerName, RetryAfter: o.tempWait, Err: err}
	}

	if provider.Retryable(err) {
		return &Error{Kind: KindTemporary, Provider: providerName, RetryAfter: o.tempWait, Err: err}
	}

	kind := KindMalformed
	switch provider.KindOf(err) {
	case provider.KindUnauthorized:
		kind = KindUnauthorized
	case provider.KindForbidden:
		kind = KindForbidden
	case provider.KindNotFound:
		kind = KindNotFound
	}
	return &Error{Kind: kind, Provider: providerName, Err: err}
}

// openRetryAfter derives the retry-after hint for an open circuit from the
// breaker's configured cooldown.
func (o *Orchestrator) openRetryAfter(providerName string) time.Duration {
	return o.registry.executorFor(providerName).Breaker().OpenTimeout()
}

// Invalidate deletes every cached diff for the PR, regardless of commit.
// Webhook handlers call this when they learn a PR changed in a way that is
// not reflected in the head commit (e.g. it was closed). Idempotent.
func (o *Orchestrator) Invalidate(ctx context.Context, id provider.Identity) error {
	return o.store.Invalidate(ctx, diffcache.PrefixFor(id))
}

// Breaker returns the named provider's breaker, if one has been created.
// Health checks read breaker state through this.
func (o *Orchestrator) Breaker(providerName string) (*resilience.Breaker, bool) {
	return o.registry.breakerFor(providerName)
}

// Providers returns the names of every provider seen so far.
func (o *Orchestrator) Providers() []string {
	return o.registry.providers()
}

// ResetBreakers forces every breaker back to closed. Operator escape hatch.
func (o *Orchestrator) ResetBreakers() {
	o.registry.reset()
}

func metaFor(id provider.Identity) observe.RequestMeta {
	return observe.RequestMeta{
		Provider: id.Provider,
		Owner:    id.Owner,
		Repo:     id.Repo,
		Number:   id.Number,
	}
}
