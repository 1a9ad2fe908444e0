package task

import "context"

// Handler executes a task. Any returned error is treated as retry-eligible;
// the engine does not distinguish transient from permanent handler failures.
type Handler[T any] interface {
	Handle(ctx context.Context, env *Envelope[T]) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc[T any] func(ctx context.Context, env *Envelope[T]) error

// Handle calls f.
func (f HandlerFunc[T]) Handle(ctx context.Context, env *Envelope[T]) error {
	return f(ctx, env)
}

// Producer publishes a JSON-encoded envelope to a broker destination.
// An empty destination selects the producer's configured default. The
// engine calls this exclusively to republish retried envelopes.
type Producer interface {
	Publish(ctx context.Context, payload []byte, destination string) error
}
