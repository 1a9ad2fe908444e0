// Package broker contains the per-broker glue between external message
// brokers and the task engine. Each adapter owns one broker connection,
// turns broker-native messages into raw payload bytes for the engine's
// ingest, and performs the broker-specific acknowledgement. The three
// brokers offer materially different delivery guarantees: Kafka-style
// offset-commit streaming, RabbitMQ-style ack/reject queuing, and
// Redis-style fire-and-forget pub/sub.
//
// The package also provides the matching producer implementations used
// to publish envelopes, including the engine's retry republishes.
package broker
