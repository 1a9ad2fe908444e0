package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Broker kind identifiers accepted by the factories.
const (
	KindKafka    = "kafka"
	KindRabbitMQ = "rabbitmq"
	KindRedis    = "redis"
)

// Errors shared by the adapters.
var (
	// ErrNotConnected is returned by Run when Connect has not succeeded.
	ErrNotConnected = errors.New("broker: not connected")

	// ErrStopped is returned by Run on an adapter whose lifecycle has
	// already ended, either by Close or by a previous Run returning.
	// Adapters are one-shot; create a new one to consume again.
	ErrStopped = errors.New("broker: consumer stopped")
)

// Ingestor receives raw payload bytes from an adapter. A returned error
// means the payload failed to decode; the adapter then performs its
// broker-specific reject or skip.
type Ingestor interface {
	Ingest(raw []byte) error
}

// Consumer is the common adapter contract. Connect is idempotent; Run
// blocks, ingesting messages until a fatal transport error, stream end,
// or context cancellation; Close is best-effort teardown.
type Consumer interface {
	Connect(ctx context.Context) error
	Run(ctx context.Context) error
	BrokerKind() string
	Close(ctx context.Context) error
}

// state tracks an adapter's connection lifecycle so invalid transitions
// (running without connecting) are rejected instead of dereferencing a
// nil connection.
type state int

const (
	stateDisconnected state = iota
	stateConnected
	stateRunning
	stateStopped
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateDisconnected:
		return "disconnected"
	case stateConnected:
		return "connected"
	case stateRunning:
		return "running"
	case stateStopped:
		return "stopped"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config selects and configures one broker adapter.
type Config struct {
	Kind     string
	Kafka    KafkaConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
}

// KafkaConfig configures the stream-offset adapter.
type KafkaConfig struct {
	Brokers      []string
	Group        string
	Topics       []string
	DefaultTopic string
}

// RabbitMQConfig configures the ack/reject-queue adapter.
type RabbitMQConfig struct {
	URL          string
	Queues       []string
	DefaultQueue string
}

// RedisConfig configures the pub/sub adapter.
type RedisConfig struct {
	URL            string
	Channels       []string
	DefaultChannel string
}

// New creates the consumer adapter selected by cfg.Kind, feeding ingest.
func New(cfg Config, ingest Ingestor, logger *slog.Logger) (Consumer, error) {
	switch cfg.Kind {
	case KindKafka:
		return NewKafkaConsumer(cfg.Kafka, ingest, logger), nil
	case KindRabbitMQ:
		return NewRabbitMQConsumer(cfg.RabbitMQ, ingest, logger), nil
	case KindRedis:
		return NewRedisConsumer(cfg.Redis, ingest, logger), nil
	default:
		return nil, fmt.Errorf("unknown broker kind %q", cfg.Kind)
	}
}
