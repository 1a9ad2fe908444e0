package task

import (
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPayload stands in for a domain task type in engine tests.
type testPayload struct {
	Kind string `json:"kind"`
	Note string `json:"note,omitempty"`
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestNewEnvelopeDefaults(t *testing.T) {
	env := New(testPayload{Kind: "noop"})

	_, err := uuid.Parse(env.ID)
	assert.NoError(t, err, "envelope ID should be a UUID")
	assert.Equal(t, PriorityNormal, env.Priority)
	assert.Equal(t, uint32(0), env.RetryCount)
	assert.Equal(t, uint32(DefaultMaxRetries), env.MaxRetries)
	assert.False(t, env.CreatedAt.IsZero())
}

func TestWithPriority(t *testing.T) {
	env := WithPriority(testPayload{Kind: "noop"}, PriorityHigh)
	assert.Equal(t, PriorityHigh, env.Priority)
}

func TestPriorityJSON(t *testing.T) {
	cases := []struct {
		priority Priority
		wire     string
	}{
		{PriorityLow, `"Low"`},
		{PriorityNormal, `"Normal"`},
		{PriorityHigh, `"High"`},
	}

	for _, tc := range cases {
		data, err := json.Marshal(tc.priority)
		require.NoError(t, err)
		assert.Equal(t, tc.wire, string(data))

		var p Priority
		require.NoError(t, json.Unmarshal(data, &p))
		assert.Equal(t, tc.priority, p)
	}

	var p Priority
	assert.Error(t, json.Unmarshal([]byte(`"Urgent"`), &p))
	assert.Error(t, json.Unmarshal([]byte(`2`), &p))
}

func TestEnvelopeRoundTrip(t *testing.T) {
	created := time.Date(2026, 8, 23, 10, 30, 15, 123456789, time.UTC)
	env := &Envelope[testPayload]{
		ID:         uuid.New().String(),
		Task:       testPayload{Kind: "send", Note: "hello"},
		CreatedAt:  created,
		RetryCount: 2,
		MaxRetries: 5,
		Priority:   PriorityHigh,
	}

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded Envelope[testPayload]
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, env.ID, decoded.ID)
	assert.Equal(t, env.Task, decoded.Task)
	assert.Equal(t, env.RetryCount, decoded.RetryCount)
	assert.Equal(t, env.MaxRetries, decoded.MaxRetries)
	assert.Equal(t, env.Priority, decoded.Priority)
	assert.True(t, env.CreatedAt.Equal(decoded.CreatedAt),
		"created_at should survive the round trip")
	assert.Equal(t, env.CreatedAt.Nanosecond(), decoded.CreatedAt.Nanosecond(),
		"sub-second precision should survive the round trip")
}

func TestShouldRetry(t *testing.T) {
	env := New(testPayload{})
	env.MaxRetries = 2

	env.RetryCount = 0
	assert.True(t, env.ShouldRetry())

	env.RetryCount = 1
	assert.True(t, env.ShouldRetry())

	env.RetryCount = 2
	assert.False(t, env.ShouldRetry())
}

func TestNextRetry(t *testing.T) {
	env := WithPriority(testPayload{Kind: "send"}, PriorityLow)
	env.RetryCount = 1

	next := env.NextRetry()

	assert.Equal(t, uint32(2), next.RetryCount)
	assert.Equal(t, uint32(1), env.RetryCount, "original must not be modified")

	// Everything but the retry count is carried over verbatim.
	assert.Equal(t, env.ID, next.ID)
	assert.Equal(t, env.Task, next.Task)
	assert.Equal(t, env.MaxRetries, next.MaxRetries)
	assert.Equal(t, env.Priority, next.Priority)
	assert.True(t, env.CreatedAt.Equal(next.CreatedAt),
		"a retried envelope keeps its original creation time")
}
