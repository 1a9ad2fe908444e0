package task

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkerPoolDefaultsInvalidCapacity(t *testing.T) {
	logger := setupTestLogger()

	pool := NewWorkerPool(WorkerPoolConfig{Capacity: 0}, logger)
	assert.Equal(t, 1, pool.Capacity())

	pool = NewWorkerPool(WorkerPoolConfig{Capacity: -3}, logger)
	assert.Equal(t, 1, pool.Capacity())

	pool = NewWorkerPool(WorkerPoolConfig{Capacity: 8}, logger)
	assert.Equal(t, 8, pool.Capacity())
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	logger := setupTestLogger()
	pool := NewWorkerPool(WorkerPoolConfig{Capacity: 3}, logger)

	var current, peak int64
	var wg sync.WaitGroup

	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, pool.Acquire(context.Background()))
			defer pool.Release()

			n := atomic.AddInt64(&current, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt64(&current, -1)
		}()
	}

	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(3),
		"concurrent executions must never exceed pool capacity")
}

func TestWorkerPoolAcquireCancellation(t *testing.T) {
	logger := setupTestLogger()
	pool := NewWorkerPool(WorkerPoolConfig{Capacity: 1}, logger)

	require.NoError(t, pool.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := pool.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	pool.Release()
}
