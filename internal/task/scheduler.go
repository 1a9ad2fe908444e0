package task

import (
	"container/heap"
	"sync"
)

// Scheduler is the single shared priority queue ordering envelopes for
// execution. Ordering is (priority descending, created_at ascending):
// higher priority wins, and on a tie the older envelope wins, so a retried
// envelope can out-rank freshly arrived same-priority work.
//
// The lock is scoped strictly to the O(log n) push/pop; it is never held
// across handler execution. The queue itself is unbounded: admission
// control happens downstream in the worker pool, not here. There is no
// deduplication by ID.
type Scheduler[T any] struct {
	mu     sync.Mutex
	items  envelopeHeap[T]
	notify chan struct{}
}

// NewScheduler creates an empty scheduler.
func NewScheduler[T any]() *Scheduler[T] {
	return &Scheduler[T]{
		notify: make(chan struct{}, 1),
	}
}

// Push inserts an envelope and wakes one waiting consumer.
func (s *Scheduler[T]) Push(env *Envelope[T]) {
	s.mu.Lock()
	heap.Push(&s.items, env)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// TryPop removes and returns the highest-ordered envelope, or false if
// the queue is empty.
func (s *Scheduler[T]) TryPop() (*Envelope[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return nil, false
	}
	env := heap.Pop(&s.items).(*Envelope[T])
	return env, true
}

// Len returns the number of queued envelopes.
func (s *Scheduler[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Wake returns a channel that receives after a Push. The signal is
// coalesced, so a consumer must drain the queue before waiting again.
func (s *Scheduler[T]) Wake() <-chan struct{} {
	return s.notify
}

type envelopeHeap[T any] []*Envelope[T]

func (h envelopeHeap[T]) Len() int { return len(h) }

func (h envelopeHeap[T]) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	return h[i].CreatedAt.Before(h[j].CreatedAt)
}

func (h envelopeHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *envelopeHeap[T]) Push(x any) {
	*h = append(*h, x.(*Envelope[T]))
}

func (h *envelopeHeap[T]) Pop() any {
	old := *h
	n := len(old)
	env := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return env
}
