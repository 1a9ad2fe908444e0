package config

import "strings"

// Config holds all worker configuration, grouped by concern.
type Config struct {
	Worker WorkerConfig `mapstructure:"worker" validate:"required"`
	Broker BrokerConfig `mapstructure:"broker" validate:"required"`
}

// WorkerConfig contains engine-level settings.
type WorkerConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// PoolSize caps concurrent handler executions. It does not bound
	// ingestion or queue growth.
	PoolSize int `mapstructure:"pool_size" validate:"required,gt=0"`
}

// BrokerConfig selects and configures the message broker.
type BrokerConfig struct {
	Kind     string         `mapstructure:"kind"     validate:"required,oneof=kafka rabbitmq redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// KafkaConfig contains stream-broker settings. Brokers and Topics are
// comma-separated lists.
type KafkaConfig struct {
	Brokers      string `mapstructure:"brokers"       validate:"required"`
	Group        string `mapstructure:"group"         validate:"required"`
	Topics       string `mapstructure:"topics"        validate:"required"`
	DefaultTopic string `mapstructure:"default_topic" validate:"required"`
}

// BrokerList returns the broker addresses as a slice.
func (c KafkaConfig) BrokerList() []string { return splitList(c.Brokers) }

// TopicList returns the subscribed topics as a slice.
func (c KafkaConfig) TopicList() []string { return splitList(c.Topics) }

// RabbitMQConfig contains queue-broker settings. Queues is a
// comma-separated list.
type RabbitMQConfig struct {
	URL          string `mapstructure:"url"           validate:"required"`
	Queues       string `mapstructure:"queues"        validate:"required"`
	DefaultQueue string `mapstructure:"default_queue" validate:"required"`
}

// QueueList returns the consumed queues as a slice.
func (c RabbitMQConfig) QueueList() []string { return splitList(c.Queues) }

// RedisConfig contains pub/sub-broker settings. Channels is a
// comma-separated list.
type RedisConfig struct {
	URL            string `mapstructure:"url"             validate:"required"`
	Channels       string `mapstructure:"channels"        validate:"required"`
	DefaultChannel string `mapstructure:"default_channel" validate:"required"`
}

// ChannelList returns the subscribed channels as a slice.
func (c RedisConfig) ChannelList() []string { return splitList(c.Channels) }

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
