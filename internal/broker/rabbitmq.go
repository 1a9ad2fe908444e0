package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

// defaultPrefetch is the per-channel QoS value. It is fixed and
// independent of the worker-pool capacity.
const defaultPrefetch = 10

// RabbitMQConsumer consumes N named durable queues over one channel,
// one ingest loop per queue, all feeding the shared scheduler.
//
// A malformed payload is rejected without requeue and permanently
// discarded. A well-formed payload is acknowledged immediately after a
// successful enqueue, before execution: a crash between enqueue and
// handler completion loses the task despite the ack.
type RabbitMQConsumer struct {
	cfg    RabbitMQConfig
	ingest Ingestor
	logger *slog.Logger

	mu      sync.Mutex
	state   state
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitMQConsumer creates an unconnected RabbitMQ adapter.
func NewRabbitMQConsumer(cfg RabbitMQConfig, ingest Ingestor, logger *slog.Logger) *RabbitMQConsumer {
	return &RabbitMQConsumer{
		cfg:    cfg,
		ingest: ingest,
		logger: logger,
	}
}

// Connect dials the broker and opens the channel. Calling Connect on an
// already connected adapter is a no-op.
func (c *RabbitMQConsumer) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && !c.conn.IsClosed() {
		return nil
	}

	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		c.state = stateFailed
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		c.state = stateFailed
		return fmt.Errorf("create rabbitmq channel: %w", err)
	}

	c.conn = conn
	c.channel = channel
	c.state = stateConnected
	c.logger.Info("rabbitmq connection established", "queues", c.cfg.Queues)
	return nil
}

// Run declares the queues, applies QoS and consumes every queue until
// all per-queue loops have ended.
func (c *RabbitMQConsumer) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.state == stateStopped {
		c.mu.Unlock()
		return ErrStopped
	}
	if c.state != stateConnected || c.channel == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.state = stateRunning
	channel := c.channel
	c.mu.Unlock()

	c.logger.Info("starting rabbitmq message consumption")

	for _, queue := range c.cfg.Queues {
		if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			c.setState(stateFailed)
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}
		c.logger.Info("queue declared", "queue", queue)
	}

	if err := channel.Qos(defaultPrefetch, 0, false); err != nil {
		c.setState(stateFailed)
		return fmt.Errorf("set channel qos: %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, queue := range c.cfg.Queues {
		deliveries, err := channel.Consume(queue, "consumer-"+queue, false, false, false, false, nil)
		if err != nil {
			c.setState(stateFailed)
			return fmt.Errorf("start consumer for queue %s: %w", queue, err)
		}
		c.logger.Info("consuming from queue", "queue", queue)

		group.Go(func() error {
			c.consumeQueue(groupCtx, queue, deliveries)
			return nil
		})
	}

	_ = group.Wait()
	c.setState(stateStopped)
	return nil
}

func (c *RabbitMQConsumer) consumeQueue(ctx context.Context, queue string, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("delivery channel closed", "queue", queue)
				return
			}
			c.handleDelivery(delivery)
		}
	}
}

// handleDelivery decodes one delivery. Malformed bodies are rejected
// without requeue; well-formed bodies are acknowledged as soon as the
// envelope is queued, strictly before execution.
func (c *RabbitMQConsumer) handleDelivery(delivery amqp.Delivery) {
	if err := c.ingest.Ingest(delivery.Body); err != nil {
		c.logger.Error("rejecting malformed task payload",
			"queue", delivery.RoutingKey, "error", err)
		if rejectErr := delivery.Reject(false); rejectErr != nil {
			c.logger.Error("failed to reject delivery", "error", rejectErr)
		}
		return
	}

	if err := delivery.Ack(false); err != nil {
		c.logger.Error("failed to ack delivery",
			"queue", delivery.RoutingKey, "error", err)
	}
}

// BrokerKind identifies the adapter in logs.
func (c *RabbitMQConsumer) BrokerKind() string { return "RabbitMQ" }

// Close tears down the channel and connection.
func (c *RabbitMQConsumer) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info("closing rabbitmq consumer")
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("error closing rabbitmq channel", "error", err)
		}
		c.channel = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("error closing rabbitmq connection", "error", err)
		}
		c.conn = nil
	}
	c.state = stateStopped
	return nil
}

func (c *RabbitMQConsumer) setState(s state) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
