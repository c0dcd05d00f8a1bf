package limits

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxClients is the default number of connections served at once.
const DefaultMaxClients = 1000

// PermitPool bounds the number of connections handled simultaneously.
//
// Unlike a reject-on-full limiter, Acquire blocks until a permit frees up or
// the context is done, so excess connections queue instead of failing.
//
// Example:
//
//	pool := NewPermitPool(1000)
//	if err := pool.Acquire(ctx); err != nil {
//	    return err // shutting down
//	}
//	defer pool.Release()
type PermitPool struct {
	sem     *semaphore.Weighted
	limit   int64
	current atomic.Int64
	peak    atomic.Int64
	waiting atomic.Int64
}

// NewPermitPool creates a pool with limit permits. Non-positive limits select
// DefaultMaxClients.
func NewPermitPool(limit int) *PermitPool {
	if limit <= 0 {
		limit = DefaultMaxClients
	}
	return &PermitPool{
		sem:   semaphore.NewWeighted(int64(limit)),
		limit: int64(limit),
	}
}

// Acquire blocks until a permit is available. It returns ctx.Err() if the
// context ends first, in which case no permit is held.
func (p *PermitPool) Acquire(ctx context.Context) error {
	p.waiting.Add(1)
	err := p.sem.Acquire(ctx, 1)
	p.waiting.Add(-1)
	if err != nil {
		return err
	}
	p.track()
	return nil
}

// TryAcquire takes a permit without blocking and reports whether it did.
func (p *PermitPool) TryAcquire() bool {
	if !p.sem.TryAcquire(1) {
		return false
	}
	p.track()
	return true
}

// Release returns a permit taken by Acquire or TryAcquire.
func (p *PermitPool) Release() {
	p.current.Add(-1)
	p.sem.Release(1)
}

// Current returns the number of permits held.
func (p *PermitPool) Current() int64 {
	return p.current.Load()
}

// Peak returns the highest number of permits held at once.
func (p *PermitPool) Peak() int64 {
	return p.peak.Load()
}

// Waiting returns the number of callers blocked in Acquire.
func (p *PermitPool) Waiting() int64 {
	return p.waiting.Load()
}

// Limit returns the pool size.
func (p *PermitPool) Limit() int64 {
	return p.limit
}

// Remaining returns the number of free permits.
func (p *PermitPool) Remaining() int64 {
	remaining := p.limit - p.current.Load()
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (p *PermitPool) track() {
	n := p.current.Add(1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			return
		}
	}
}
