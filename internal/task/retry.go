package task

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// RetryConfig holds configuration options for the retry coordinator.
type RetryConfig struct {
	// BaseDelay is the backoff unit: a task on its nth retry is
	// republished after BaseDelay << n (2s, 4s, 8s... at the default
	// of one second). There is no upper cap. If zero, defaults to 1s.
	BaseDelay time.Duration

	// PublishTimeout bounds the republish call itself.
	// If zero, defaults to 5s.
	PublishTimeout time.Duration
}

// DefaultRetryConfig returns a RetryConfig with reasonable defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		BaseDelay:      time.Second,
		PublishTimeout: 5 * time.Second,
	}
}

// RetryCoordinator decides retry eligibility on handler failure, waits
// out the exponential backoff, and republishes the incremented envelope
// through the producer. Every pending timer is owned by the coordinator:
// Stop either drains them or cancels them, so a shutdown never abandons
// a scheduled retry silently.
//
// A failed republish is logged and the task is lost; there is no
// compensating re-enqueue and no dead-letter destination.
type RetryCoordinator[T any] struct {
	producer Producer
	config   RetryConfig
	logger   *slog.Logger

	wg       sync.WaitGroup
	done     chan struct{}
	stopOnce sync.Once
}

// NewRetryCoordinator creates a retry coordinator publishing through producer.
func NewRetryCoordinator[T any](producer Producer, config RetryConfig, logger *slog.Logger) *RetryCoordinator[T] {
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = 5 * time.Second
	}
	return &RetryCoordinator[T]{
		producer: producer,
		config:   config,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// HandleFailure processes a handler error for env. If the envelope is
// still retry-eligible it schedules a delayed republish and returns true;
// otherwise it logs the permanent drop and returns false.
func (c *RetryCoordinator[T]) HandleFailure(env *Envelope[T], cause error) bool {
	if !env.ShouldRetry() {
		c.logger.Error("task exceeded max retries, dropping",
			"task_id", env.ID,
			"max_retries", env.MaxRetries,
			"error", cause)
		return false
	}

	retry := env.NextRetry()
	delay := c.config.BaseDelay << retry.RetryCount
	c.logger.Warn("task will be retried",
		"task_id", retry.ID,
		"attempt", retry.RetryCount,
		"max_retries", retry.MaxRetries,
		"delay", delay,
		"error", cause)

	c.wg.Add(1)
	go c.republishAfter(retry, delay)
	return true
}

func (c *RetryCoordinator[T]) republishAfter(retry *Envelope[T], delay time.Duration) {
	defer c.wg.Done()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-c.done:
		c.logger.Info("pending retry cancelled", "task_id", retry.ID)
		return
	case <-timer.C:
	}

	payload, err := json.Marshal(retry)
	if err != nil {
		c.logger.Error("failed to serialize retry envelope",
			"task_id", retry.ID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.config.PublishTimeout)
	defer cancel()

	if err := c.producer.Publish(ctx, payload, ""); err != nil {
		// The task is permanently lost at this point.
		c.logger.Error("failed to republish task",
			"task_id", retry.ID, "error", err)
		return
	}

	c.logger.Info("task republished for retry",
		"task_id", retry.ID, "attempt", retry.RetryCount)
}

// Stop waits for pending retries to fire and publish. If ctx expires
// first, the remaining timers are cancelled without publishing and
// ctx's error is returned.
func (c *RetryCoordinator[T]) Stop(ctx context.Context) error {
	drained := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		c.stopOnce.Do(func() { close(c.done) })
		<-drained
		return ctx.Err()
	}
}
