package broker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func TestHandleRecordIngests(t *testing.T) {
	ingest := &fakeIngestor{}
	consumer := NewKafkaConsumer(testConfig(KindKafka).Kafka, ingest, setupTestLogger())

	value := []byte(`{"id":"a1","task":{},"created_at":"2026-08-23T10:00:00Z","retry_count":0,"max_retries":3,"priority":"High"}`)
	consumer.handleRecord(&kgo.Record{Topic: "tasks", Value: value})

	require.Len(t, ingest.ingested(), 1)
	assert.Equal(t, value, ingest.ingested()[0])
}

func TestHandleRecordSkipsMalformed(t *testing.T) {
	ingest := &fakeIngestor{failWith: errors.New("decode task envelope: bad json")}
	consumer := NewKafkaConsumer(testConfig(KindKafka).Kafka, ingest, setupTestLogger())

	// Neither a decode failure nor an empty record may panic or stop
	// consumption; both are logged and skipped.
	consumer.handleRecord(&kgo.Record{Topic: "tasks", Value: []byte("{not json")})
	consumer.handleRecord(&kgo.Record{Topic: "tasks", Value: nil})

	assert.Empty(t, ingest.ingested())
}
