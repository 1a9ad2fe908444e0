package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// EngineConfig holds configuration for the engine.
type EngineConfig struct {
	Pool  WorkerPoolConfig
	Retry RetryConfig

	// PollInterval is the fallback tick of the dispatch loop. The loop
	// is primarily woken by pushes; the tick only guards against a
	// coalesced wakeup racing a concurrent pop. If zero, defaults to 100ms.
	PollInterval time.Duration
}

// DefaultEngineConfig returns an EngineConfig with reasonable defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Pool:         DefaultWorkerPoolConfig(),
		Retry:        DefaultRetryConfig(),
		PollInterval: 100 * time.Millisecond,
	}
}

// Engine ties the scheduler, the worker pool and the retry coordinator
// together. Broker adapters hand it raw payloads through Ingest; the
// dispatch loop pops envelopes in priority order, admits them through
// the pool and runs the handler, retrying failures via the coordinator.
//
// One engine is shared by every ingest loop of an adapter: ingestion
// concurrency is not capped, only handler execution is, so the queue can
// grow without bound if ingestion outpaces processing.
type Engine[T any] struct {
	scheduler *Scheduler[T]
	pool      *WorkerPool
	retry     *RetryCoordinator[T]
	handler   Handler[T]
	logger    *slog.Logger

	pollInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates an engine executing tasks through handler and
// republishing retries through producer.
func NewEngine[T any](handler Handler[T], producer Producer, config EngineConfig, logger *slog.Logger) *Engine[T] {
	if config.PollInterval <= 0 {
		config.PollInterval = 100 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Engine[T]{
		scheduler:    NewScheduler[T](),
		pool:         NewWorkerPool(config.Pool, logger),
		retry:        NewRetryCoordinator[T](producer, config.Retry, logger),
		handler:      handler,
		logger:       logger,
		pollInterval: config.PollInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Ingest decodes a raw payload into an envelope and enqueues it. A decode
// error is returned to the adapter, which performs the broker-specific
// reject or skip; nothing malformed ever reaches the scheduler.
func (e *Engine[T]) Ingest(raw []byte) error {
	var env Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode task envelope: %w", err)
	}

	e.scheduler.Push(&env)
	e.logger.Info("task enqueued",
		"task_id", env.ID,
		"priority", env.Priority.String(),
		"retry_count", env.RetryCount)
	return nil
}

// QueueLen returns the number of envelopes waiting for dispatch.
func (e *Engine[T]) QueueLen() int {
	return e.scheduler.Len()
}

// Start launches the dispatch loop.
func (e *Engine[T]) Start() {
	e.wg.Add(1)
	go e.dispatchLoop()
}

func (e *Engine[T]) dispatchLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		env, ok := e.scheduler.TryPop()
		if !ok {
			select {
			case <-e.ctx.Done():
				return
			case <-e.scheduler.Wake():
			case <-ticker.C:
			}
			continue
		}

		if err := e.pool.Acquire(e.ctx); err != nil {
			// Shutting down with one envelope popped; it is lost along
			// with the rest of the in-memory queue.
			return
		}

		e.wg.Add(1)
		go e.execute(env)
	}
}

func (e *Engine[T]) execute(env *Envelope[T]) {
	defer e.wg.Done()
	defer e.pool.Release()

	logger := e.logger.With(
		"task_id", env.ID,
		"priority", env.Priority.String())

	logger.Info("processing task")

	if err := e.handler.Handle(e.ctx, env); err != nil {
		logger.Error("task failed", "error", err)
		e.retry.HandleFailure(env, err)
		return
	}

	logger.Info("task completed")
}

// Stop halts dispatch, waits for in-flight handlers, then drains or
// cancels pending retry timers. Envelopes still queued are abandoned;
// there is no persisted store to recover them from.
func (e *Engine[T]) Stop(ctx context.Context) error {
	e.cancel()

	finished := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		return ctx.Err()
	}

	return e.retry.Stop(ctx)
}
