package auth

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"
)

// DerivationPool bounds the number of key derivations running at once so a
// burst of logins cannot starve the rest of the server of CPU.
//
// A caller whose context ends while waiting for a slot gets ctx.Err(). A
// derivation that already started always runs to completion; only its result
// is dropped.
type DerivationPool struct {
	sem *semaphore.Weighted

	// Observe, when set, receives the wall time of every finished derivation.
	// op is "hash" or "verify".
	Observe func(op string, d time.Duration)
}

// NewDerivationPool returns a pool running at most workers derivations
// concurrently. workers <= 0 means GOMAXPROCS.
func NewDerivationPool(workers int) *DerivationPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &DerivationPool{sem: semaphore.NewWeighted(int64(workers))}
}

func (p *DerivationPool) run(ctx context.Context, op string, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		defer p.sem.Release(1)
		defer close(done)
		start := time.Now()
		fn()
		if p.Observe != nil {
			p.Observe(op, time.Since(start))
		}
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Hash runs HashPassword on the pool.
func (p *DerivationPool) Hash(ctx context.Context, password string) (Credential, error) {
	var (
		c       Credential
		hashErr error
	)
	if err := p.run(ctx, "hash", func() { c, hashErr = HashPassword(password) }); err != nil {
		return Credential{}, err
	}
	return c, hashErr
}

// Verify runs VerifyPassword on the pool.
func (p *DerivationPool) Verify(ctx context.Context, password, stored string) (bool, error) {
	var ok bool
	if err := p.run(ctx, "verify", func() { ok = VerifyPassword(password, stored) }); err != nil {
		return false, err
	}
	return ok, nil
}
