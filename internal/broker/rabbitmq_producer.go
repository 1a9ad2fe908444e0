package broker

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQProducer publishes envelopes as persistent messages on
// durable queues.
type RabbitMQProducer struct {
	conn         *amqp.Connection
	defaultQueue string
	logger       *slog.Logger
}

// NewRabbitMQProducer dials the broker.
func NewRabbitMQProducer(cfg RabbitMQConfig, logger *slog.Logger) (*RabbitMQProducer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	return &RabbitMQProducer{
		conn:         conn,
		defaultQueue: cfg.DefaultQueue,
		logger:       logger,
	}, nil
}

// Publish declares the destination queue and publishes payload to it,
// or to the default queue when destination is empty.
func (p *RabbitMQProducer) Publish(ctx context.Context, payload []byte, destination string) error {
	queue := destination
	if queue == "" {
		queue = p.defaultQueue
	}

	channel, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("create rabbitmq channel: %w", err)
	}
	defer func() {
		if closeErr := channel.Close(); closeErr != nil {
			p.logger.Warn("error closing rabbitmq channel", "error", closeErr)
		}
	}()

	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}

	err = channel.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish to rabbitmq queue %s: %w", queue, err)
	}

	p.logger.Info("published task event to rabbitmq", "queue", queue)
	return nil
}

// Close tears down the connection.
func (p *RabbitMQProducer) Close() error {
	return p.conn.Close()
}
