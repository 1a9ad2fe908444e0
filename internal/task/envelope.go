package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxRetries is the retry ceiling applied to newly created envelopes.
const DefaultMaxRetries = 3

// Priority orders envelopes for execution. Higher values win.
type Priority int

// Priority levels, lowest to highest.
const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

// String returns the wire name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityNormal:
		return "Normal"
	case PriorityHigh:
		return "High"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// MarshalJSON encodes the priority as its variant name.
func (p Priority) MarshalJSON() ([]byte, error) {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return []byte(`"` + p.String() + `"`), nil
	default:
		return nil, fmt.Errorf("invalid priority %d", int(p))
	}
}

// UnmarshalJSON decodes a priority from its variant name.
func (p *Priority) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"Low"`:
		*p = PriorityLow
	case `"Normal"`:
		*p = PriorityNormal
	case `"High"`:
		*p = PriorityHigh
	default:
		return fmt.Errorf("invalid priority %s", data)
	}
	return nil
}

// Envelope is the serializable unit of work: identity, typed payload,
// scheduling metadata and retry bookkeeping. CreatedAt is set once at
// creation and preserved verbatim across retries so a retried envelope
// keeps its original seniority in the scheduler.
type Envelope[T any] struct {
	ID         string    `json:"id"`
	Task       T         `json:"task"`
	CreatedAt  time.Time `json:"created_at"`
	RetryCount uint32    `json:"retry_count"`
	MaxRetries uint32    `json:"max_retries"`
	Priority   Priority  `json:"priority"`
}

// New creates an envelope with Normal priority.
func New[T any](payload T) *Envelope[T] {
	return WithPriority(payload, PriorityNormal)
}

// WithPriority creates an envelope with the given priority.
func WithPriority[T any](payload T, p Priority) *Envelope[T] {
	return &Envelope[T]{
		ID:         uuid.New().String(),
		Task:       payload,
		CreatedAt:  time.Now().UTC(),
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
		Priority:   p,
	}
}

// ShouldRetry reports whether the envelope is still eligible for retry.
func (e *Envelope[T]) ShouldRetry() bool {
	return e.RetryCount < e.MaxRetries
}

// NextRetry derives the envelope republished on failure: an exact copy
// with the retry count incremented by one. The receiver is not modified.
func (e *Envelope[T]) NextRetry() *Envelope[T] {
	next := *e
	next.RetryCount++
	return &next
}
