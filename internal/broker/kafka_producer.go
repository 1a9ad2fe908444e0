package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaProducer publishes envelopes to Kafka topics.
type KafkaProducer struct {
	client       *kgo.Client
	defaultTopic string
	logger       *slog.Logger
}

// NewKafkaProducer creates a producer for the configured brokers.
func NewKafkaProducer(cfg KafkaConfig, logger *slog.Logger) (*KafkaProducer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ProduceRequestTimeout(5*time.Second),
		kgo.ProducerBatchCompression(kgo.Lz4Compression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &KafkaProducer{
		client:       client,
		defaultTopic: cfg.DefaultTopic,
		logger:       logger,
	}, nil
}

// Publish sends payload to destination, or the default topic when
// destination is empty.
func (p *KafkaProducer) Publish(ctx context.Context, payload []byte, destination string) error {
	topic := destination
	if topic == "" {
		topic = p.defaultTopic
	}

	record := &kgo.Record{
		Topic: topic,
		Key:   []byte("default"),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish to kafka topic %s: %w", topic, err)
	}

	p.logger.Info("published task event to kafka", "topic", topic)
	return nil
}

// Close shuts the client down.
func (p *KafkaProducer) Close() error {
	p.client.Close()
	return nil
}
