// Package main implements the conveyor worker: it connects one broker
// adapter to the task engine and processes background tasks until a
// fatal transport error or a shutdown signal.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opsforge/conveyor/internal/broker"
	"github.com/opsforge/conveyor/internal/config"
	"github.com/opsforge/conveyor/internal/jobs"
	"github.com/opsforge/conveyor/internal/platform/logger"
	"github.com/opsforge/conveyor/internal/task"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("worker failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	appLogger := logger.Setup(cfg.Worker)
	appLogger.Info("worker configuration loaded",
		"broker", cfg.Broker.Kind,
		"pool_size", cfg.Worker.PoolSize)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	brokerCfg := brokerConfig(cfg)

	producer, err := broker.NewProducer(brokerCfg, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := producer.Close(); err != nil {
			appLogger.Warn("error closing producer", "error", err)
		}
	}()

	// Collaborators (SMTP, database, upload storage) are owned by the
	// application deployment; without them the matching task types fail
	// and retry.
	handler := jobs.NewHandler(nil, nil, nil, nil, appLogger)
	appLogger.Warn("no task collaborators configured; domain tasks will fail and retry")

	engineCfg := task.DefaultEngineConfig()
	engineCfg.Pool.Capacity = cfg.Worker.PoolSize
	engine := task.NewEngine[jobs.Payload](handler, producer, engineCfg, appLogger)

	consumer, err := broker.New(brokerCfg, engine, appLogger)
	if err != nil {
		return err
	}

	if err := consumer.Connect(ctx); err != nil {
		return err
	}
	appLogger.Info("connected to broker", "broker", consumer.BrokerKind())

	engine.Start()
	appLogger.Info("worker is ready and consuming messages")

	runErr := consumer.Run(ctx)
	if runErr != nil {
		appLogger.Error("consumer stopped with error", "error", runErr)
	} else {
		appLogger.Info("consumer stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := consumer.Close(shutdownCtx); err != nil {
		appLogger.Warn("error closing consumer", "error", err)
	}
	if err := engine.Stop(shutdownCtx); err != nil {
		appLogger.Warn("engine did not drain cleanly", "error", err)
	}

	appLogger.Info("worker shutdown complete")
	return runErr
}

// brokerConfig maps the loaded configuration onto the broker package.
func brokerConfig(cfg *config.Config) broker.Config {
	return broker.Config{
		Kind: cfg.Broker.Kind,
		Kafka: broker.KafkaConfig{
			Brokers:      cfg.Broker.Kafka.BrokerList(),
			Group:        cfg.Broker.Kafka.Group,
			Topics:       cfg.Broker.Kafka.TopicList(),
			DefaultTopic: cfg.Broker.Kafka.DefaultTopic,
		},
		RabbitMQ: broker.RabbitMQConfig{
			URL:          cfg.Broker.RabbitMQ.URL,
			Queues:       cfg.Broker.RabbitMQ.QueueList(),
			DefaultQueue: cfg.Broker.RabbitMQ.DefaultQueue,
		},
		Redis: broker.RedisConfig{
			URL:            cfg.Broker.Redis.URL,
			Channels:       cfg.Broker.Redis.ChannelList(),
			DefaultChannel: cfg.Broker.Redis.DefaultChannel,
		},
	}
}
