package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaConsumer subscribes a consumer group to N topics. The auto-commit
// timer runs every 5s but commits only marked offsets.
//
// TODO: mark records (client.MarkCommitRecords) after a successful
// enqueue; nothing marks them today, so the commit timer has no offsets
// to store and a restart replays the group from its last committed
// position.
type KafkaConsumer struct {
	cfg    KafkaConfig
	ingest Ingestor
	logger *slog.Logger

	mu     sync.Mutex
	state  state
	client *kgo.Client
}

// NewKafkaConsumer creates an unconnected Kafka adapter.
func NewKafkaConsumer(cfg KafkaConfig, ingest Ingestor, logger *slog.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		cfg:    cfg,
		ingest: ingest,
		logger: logger,
	}
}

// Connect creates the group client and ensures the subscribed topics
// exist. Calling Connect on an already connected adapter is a no-op.
func (c *KafkaConsumer) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(c.cfg.Brokers...),
		kgo.ConsumerGroup(c.cfg.Group),
		kgo.ConsumeTopics(c.cfg.Topics...),
		kgo.SessionTimeout(6*time.Second),
		kgo.AutoCommitInterval(5*time.Second),
		kgo.AutoCommitMarks(),
	)
	if err != nil {
		c.state = stateFailed
		return fmt.Errorf("create kafka client: %w", err)
	}

	if err := c.ensureTopics(ctx, client); err != nil {
		client.Close()
		c.state = stateFailed
		return err
	}

	c.client = client
	c.state = stateConnected
	c.logger.Info("kafka consumer connected",
		"brokers", c.cfg.Brokers,
		"group", c.cfg.Group,
		"topics", c.cfg.Topics)
	return nil
}

// ensureTopics creates the subscribed topics with one partition and
// replication factor one; already-existing topics are fine.
func (c *KafkaConsumer) ensureTopics(ctx context.Context, client *kgo.Client) error {
	adm := kadm.NewClient(client)

	responses, err := adm.CreateTopics(ctx, 1, 1, nil, c.cfg.Topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}

	for _, resp := range responses.Sorted() {
		switch {
		case resp.Err == nil:
			c.logger.Info("kafka topic created", "topic", resp.Topic)
		case errors.Is(resp.Err, kerr.TopicAlreadyExists):
			c.logger.Debug("kafka topic already exists", "topic", resp.Topic)
		default:
			c.logger.Warn("could not create kafka topic",
				"topic", resp.Topic, "error", resp.Err)
		}
	}
	return nil
}

// Run polls fetches until a fatal transport error or cancellation.
// Non-fatal fetch errors are logged, the loop sleeps briefly and
// continues; decode failures are logged and the record skipped.
func (c *KafkaConsumer) Run(ctx context.Context) error {
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

	c.logger.Info("starting kafka message consumption")

	for {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			c.setState(stateStopped)
			return nil
		}

		var fatal error
		var transient bool
		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			var kafkaErr *kerr.Error
			if errors.As(err, &kafkaErr) && !kafkaErr.Retriable {
				fatal = err
				return
			}
			transient = true
			c.logger.Error("kafka fetch error",
				"topic", topic, "partition", partition, "error", err)
		})
		if fatal != nil {
			c.setState(stateFailed)
			return fmt.Errorf("fatal kafka error: %w", fatal)
		}
		if transient {
			select {
			case <-ctx.Done():
				c.setState(stateStopped)
				return nil
			case <-time.After(time.Second):
			}
		}

		fetches.EachRecord(c.handleRecord)
	}
}

// handleRecord ingests one record. There is no redelivery on this path:
// a record with no payload or one that fails to decode is logged and
// skipped, and consumption continues.
func (c *KafkaConsumer) handleRecord(record *kgo.Record) {
	if record.Value == nil {
		c.logger.Warn("received kafka record with no payload",
			"topic", record.Topic)
		return
	}
	if err := c.ingest.Ingest(record.Value); err != nil {
		c.logger.Error("failed to parse task event",
			"topic", record.Topic, "error", err)
	}
}

// BrokerKind identifies the adapter in logs.
func (c *KafkaConsumer) BrokerKind() string { return "Kafka" }

// Close shuts the client down.
func (c *KafkaConsumer) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info("closing kafka consumer")
	if c.client != nil {
		c.client.Close()
		c.client = nil
	}
	c.state = stateStopped
	return nil
}

func (c *KafkaConsumer) setState(s state) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
