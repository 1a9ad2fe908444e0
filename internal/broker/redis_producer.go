package broker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisProducer publishes envelopes on pub/sub channels. Delivery is
// fire-and-forget: a message published with no subscribers is lost.
type RedisProducer struct {
	client         *redis.Client
	defaultChannel string
	logger         *slog.Logger
}

// NewRedisProducer creates a producer for the configured server.
func NewRedisProducer(cfg RedisConfig, logger *slog.Logger) (*RedisProducer, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return &RedisProducer{
		client:         redis.NewClient(opts),
		defaultChannel: cfg.DefaultChannel,
		logger:         logger,
	}, nil
}

// Publish sends payload on destination, or the default channel when
// destination is empty.
func (p *RedisProducer) Publish(ctx context.Context, payload []byte, destination string) error {
	channel := destination
	if channel == "" {
		channel = p.defaultChannel
	}

	subscribers, err := p.client.Publish(ctx, channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publish to redis channel %s: %w", channel, err)
	}

	if subscribers == 0 {
		p.logger.Warn("published task event but no subscribers are listening",
			"channel", channel)
	} else {
		p.logger.Info("published task event to redis",
			"channel", channel, "subscribers", subscribers)
	}
	return nil
}

// Close shuts the client down.
func (p *RedisProducer) Close() error {
	return p.client.Close()
}
