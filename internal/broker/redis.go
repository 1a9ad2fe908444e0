package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisConsumer subscribes to N channels over one pub/sub connection.
// Redis pub/sub has no redelivery: a message published while no
// subscriber is connected is lost, and a clean end of stream is
// indistinguishable from an unexpected disconnect, so Run returns nil
// for both and makes no reconnect attempt.
type RedisConsumer struct {
	cfg    RedisConfig
	ingest Ingestor
	logger *slog.Logger

	mu     sync.Mutex
	state  state
	client *redis.Client
	pubsub *redis.PubSub
}

// NewRedisConsumer creates an unconnected Redis adapter.
func NewRedisConsumer(cfg RedisConfig, ingest Ingestor, logger *slog.Logger) *RedisConsumer {
	return &RedisConsumer{
		cfg:    cfg,
		ingest: ingest,
		logger: logger,
	}
}

// Connect creates the client and verifies the server is reachable.
// Calling Connect on an already connected adapter is a no-op.
func (c *RedisConsumer) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}

	opts, err := redis.ParseURL(c.cfg.URL)
	if err != nil {
		c.state = stateFailed
		return fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		c.state = stateFailed
		return fmt.Errorf("connect to redis: %w", err)
	}

	c.client = client
	c.state = stateConnected
	c.logger.Info("redis pub/sub connection verified", "channels", c.cfg.Channels)
	return nil
}

// Run subscribes to the configured channels and ingests messages until
// the stream ends or ctx is cancelled.
func (c *RedisConsumer) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.state == stateStopped {
		c.mu.Unlock()
		return ErrStopped
	}
	if c.state != stateConnected || c.client == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.state = stateRunning
	client := c.client
	c.mu.Unlock()

	pubsub := client.Subscribe(ctx, c.cfg.Channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		c.setState(stateFailed)
		return fmt.Errorf("subscribe to redis channels: %w", err)
	}

	c.mu.Lock()
	c.pubsub = pubsub
	c.mu.Unlock()

	c.logger.Info("starting redis pub/sub consumption", "channels", c.cfg.Channels)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			c.setState(stateStopped)
			return nil
		case msg, ok := <-messages:
			if !ok {
				c.logger.Warn("redis pub/sub stream ended")
				c.setState(stateStopped)
				return nil
			}
			c.handleMessage(msg)
		}
	}
}

// handleMessage ingests one pub/sub message. Pub/sub has no redelivery,
// so a payload that fails to decode is logged and dropped while the
// subscription keeps running.
func (c *RedisConsumer) handleMessage(msg *redis.Message) {
	if err := c.ingest.Ingest([]byte(msg.Payload)); err != nil {
		c.logger.Error("failed to parse task event",
			"channel", msg.Channel, "error", err)
	}
}

// BrokerKind identifies the adapter in logs.
func (c *RedisConsumer) BrokerKind() string { return "Redis" }

// Close tears down the subscription and the client.
func (c *RedisConsumer) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info("closing redis consumer")
	if c.pubsub != nil {
		if err := c.pubsub.Close(); err != nil {
			c.logger.Warn("error closing redis subscription", "error", err)
		}
		c.pubsub = nil
	}
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			c.logger.Warn("error closing redis client", "error", err)
		}
		c.client = nil
	}
	c.state = stateStopped
	return nil
}

func (c *RedisConsumer) setState(s state) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
