package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the breaker state.
type State int

const (
	// StateClosed means calls flow through normally.
	StateClosed State = iota
	// StateOpen means calls are rejected without execution.
	StateOpen
	// StateHalfOpen means a limited number of probe calls are allowed through.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// circuit while closed.
	// Default: 5
	FailureThreshold int

	// SuccessThreshold is the number of consecutive half-open successes that
	// closes the circuit again.
	// Default: 1
	SuccessThreshold int

	// OpenTimeout is how long the circuit stays open before the next call is
	// allowed through as a half-open probe.
	// Default: 30 seconds
	OpenTimeout time.Duration

	// HalfOpenMaxProbes is the maximum number of in-flight probe calls while
	// half-open. Default: SuccessThreshold.
	HalfOpenMaxProbes int

	// OnStateChange is called for every transition while the breaker's lock
	// is held; keep it fast and do not call back into the breaker.
	OnStateChange func(from, to State)

	// IsFailure decides whether an error counts against the breaker.
	// Default: every non-nil error except context.Canceled. A cancelled call
	// counts as neither success nor failure, so caller cancellation cannot
	// corrupt breaker state.
	IsFailure func(err error) bool
}

// Breaker is a circuit breaker for one upstream provider. One long-lived
// instance per provider, shared by every in-flight request for it.
//
// The state enum and its counters mutate under a single mutex so that a
// racing success and failure can never leave them inconsistent.
type Breaker struct {
	config BreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
	probes      int
}

// NewBreaker creates a breaker in the closed state.
func NewBreaker(config BreakerConfig) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxProbes <= 0 {
		config.HalfOpenMaxProbes = config.SuccessThreshold
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		}
	}

	return &Breaker{
		config: config,
		state:  StateClosed,
	}
}

// Call runs op through the breaker. While open it returns ErrCircuitOpen
// without executing op; otherwise it returns op's error unchanged.
//
// Compose retry inside a single Call so that one logical request counts
// toward breaker state exactly once, by its ultimate outcome.
func (b *Breaker) Call(ctx context.Context, op func(context.Context) error) error {
	if err := b.beforeCall(); err != nil {
		return err
	}

	err := op(ctx)
	b.afterCall(err)
	return err
}

func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.stateLocked() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probes >= b.config.HalfOpenMaxProbes {
			return ErrCircuitOpen
		}
		b.probes++
	}
	return nil
}

func (b *Breaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasProbe := b.state == StateHalfOpen
	if wasProbe && b.probes > 0 {
		b.probes--
	}

	// Cancelled calls count as neither success nor failure.
	if err != nil && errors.Is(err, context.Canceled) && !b.config.IsFailure(err) {
		return
	}

	if b.config.IsFailure(err) {
		b.onFailureLocked()
	} else {
		b.onSuccessLocked()
	}
}

func (b *Breaker) onFailureLocked() {
	switch b.state {
	case StateClosed:
		b.failures++
		b.lastFailure = time.Now()
		if b.failures >= b.config.FailureThreshold {
			b.transitionLocked(StateOpen)
		}
	case StateHalfOpen:
		// Probe failed, back to open for another full cooldown.
		b.successes = 0
		b.lastFailure = time.Now()
		b.transitionLocked(StateOpen)
	}
}

func (b *Breaker) onSuccessLocked() {
	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.failures = 0
			b.successes = 0
			b.transitionLocked(StateClosed)
		}
	}
}

// stateLocked returns the current state, moving open to half-open once the
// cooldown since the last failure has elapsed.
func (b *Breaker) stateLocked() State {
	if b.state == StateOpen && time.Since(b.lastFailure) > b.config.OpenTimeout {
		b.probes = 0
		b.successes = 0
		b.transitionLocked(StateHalfOpen)
	}
	return b.state
}

func (b *Breaker) transitionLocked(next State) {
	if b.state == next {
		return
	}
	prev := b.state
	b.state = next
	if b.config.OnStateChange != nil {
		b.config.OnStateChange(prev, next)
	}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// OpenTimeout returns the configured cooldown. The orchestrator derives
// retry-after hints from it.
func (b *Breaker) OpenTimeout() time.Duration {
	return b.config.OpenTimeout
}

// Reset forces the breaker back to closed with cleared counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.successes = 0
	b.probes = 0
	b.transitionLocked(StateClosed)
}

// Snapshot is a point-in-time view of breaker counters.
type Snapshot struct {
	State       State
	Failures    int
	Successes   int
	LastFailure time.Time
}

// Snapshot returns the current counters for observability.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Snapshot{
		State:       b.stateLocked(),
		Failures:    b.failures,
		Successes:   b.successes,
		LastFailure: b.lastFailure,
	}
}
