package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivationPool_HashVerify(t *testing.T) {
	t.Parallel()

	var (
		mu  sync.Mutex
		ops []string
	)
	p := NewDerivationPool(2)
	p.Observe = func(op string, d time.Duration) {
		mu.Lock()
		ops = append(ops, op)
		mu.Unlock()
	}
	ctx := context.Background()

	c, err := p.Hash(ctx, "longenough1")
	require.NoError(t, err)

	ok, err := p.Verify(ctx, "longenough1", c.String())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Verify(ctx, "wrong", c.String())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.Verify(ctx, "x", "garbage")
	require.NoError(t, err)
	assert.False(t, ok)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"hash", "verify", "verify", "verify"}, ops)
}

func TestDerivationPool_CanceledWhileWaiting(t *testing.T) {
	t.Parallel()

	p := NewDerivationPool(1)
	require.NoError(t, p.sem.Acquire(context.Background(), 1))
	defer p.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Hash(ctx, "pw")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = p.Verify(ctx, "pw", "00:00")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDerivationPool_ConcurrentUse(t *testing.T) {
	t.Parallel()

	p := NewDerivationPool(0)
	c, err := HashPassword("shared")
	require.NoError(t, err)
	stored := c.String()

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := p.Verify(context.Background(), "shared", stored)
			assert.NoError(t, err)
			results[i] = ok
		}(i)
	}
	wg.Wait()
	for i, ok := range results {
		assert.True(t, ok, "worker %d", i)
	}
}
