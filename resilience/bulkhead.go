package resilience

import (
	"context"
	"sync/atomic"
)

// BulkheadConfig configures the concurrency cap for live fetches.
type BulkheadConfig struct {
	// MaxConcurrent is the maximum number of in-flight live fetches.
	// Default: 16
	MaxConcurrent int
}

// Bulkhead caps concurrent live fetches to one provider so a slow upstream
// cannot absorb every worker. It never queues: when full, calls are rejected
// immediately with ErrBulkheadFull.
type Bulkhead struct {
	sem      chan struct{}
	rejected atomic.Int64
}

// NewBulkhead creates a bulkhead with all slots free.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 16
	}
	return &Bulkhead{sem: make(chan struct{}, config.MaxConcurrent)}
}

// Execute runs op inside a slot, or returns ErrBulkheadFull when none is free.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	select {
	case b.sem <- struct{}{}:
	default:
		b.rejected.Add(1)
		return ErrBulkheadFull
	}
	defer func() { <-b.sem }()

	return op(ctx)
}

// InFlight returns the number of live fetches currently holding a slot.
func (b *Bulkhead) InFlight() int {
	return len(b.sem)
}

// Rejected returns the count of calls rejected since creation.
func (b *Bulkhead) Rejected() int64 {
	return b.rejected.Load()
}
