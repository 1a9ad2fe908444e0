package task

import (
	"context"
	"log/slog"

	"golang.org/x/sync/semaphore"
)

// WorkerPoolConfig holds configuration options for the worker pool.
type WorkerPoolConfig struct {
	// Capacity is the number of handler executions allowed to run
	// concurrently. If zero or negative, defaults to 1.
	Capacity int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{Capacity: 4}
}

// WorkerPool is the admission gate around handler execution: a weighted
// semaphore sized to the configured capacity. A slot is acquired before a
// handler starts and released only when the handler returns, so the pool
// bounds how many tasks are executing, not how many are queued. This is
// the engine's sole backpressure mechanism.
type WorkerPool struct {
	sem      *semaphore.Weighted
	capacity int
	logger   *slog.Logger
}

// NewWorkerPool creates a worker pool with the specified configuration.
func NewWorkerPool(config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	capacity := config.Capacity
	if capacity <= 0 {
		capacity = 1
		logger.Warn("invalid worker pool capacity, using default",
			"specified_capacity", config.Capacity,
			"default_capacity", capacity)
	}

	return &WorkerPool{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
		logger:   logger,
	}
}

// Acquire blocks until an admission slot is free or ctx is cancelled.
func (p *WorkerPool) Acquire(ctx context.Context) error {
	return p.sem.Acquire(ctx, 1)
}

// Release returns an admission slot to the pool.
func (p *WorkerPool) Release() {
	p.sem.Release(1)
}

// Capacity returns the configured concurrency bound.
func (p *WorkerPool) Capacity() int {
	return p.capacity
}
