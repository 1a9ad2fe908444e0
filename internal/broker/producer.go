package broker

import (
	"fmt"
	"log/slog"

	"github.com/opsforge/conveyor/internal/task"
)

// Producer is a closeable task.Producer bound to one broker.
type Producer interface {
	task.Producer
	Close() error
}

// NewProducer creates the producer matching cfg.Kind. The destination
// passed to Publish overrides the configured default topic, queue or
// channel; an empty destination uses the default.
func NewProducer(cfg Config, logger *slog.Logger) (Producer, error) {
	switch cfg.Kind {
	case KindKafka:
		return NewKafkaProducer(cfg.Kafka, logger)
	case KindRabbitMQ:
		return NewRabbitMQProducer(cfg.RabbitMQ, logger)
	case KindRedis:
		return NewRedisProducer(cfg.Redis, logger)
	default:
		return nil, fmt.Errorf("unknown broker kind %q", cfg.Kind)
	}
}
