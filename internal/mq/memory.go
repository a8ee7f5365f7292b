package mq

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryBackend is a single-process Backend used by unit tests and
// by standalone runs without a broker. It still honors nack-with-requeue
// and competing-consumer semantics within the process.
type InMemoryBackend struct {
	mu     sync.Mutex
	queues map[string]chan Delivery
}

// NewInMemoryBackend constructs an empty backend.
func NewInMemoryBackend() *InMemoryBackend {
	return &InMemoryBackend{queues: make(map[string]chan Delivery)}
}

func (b *InMemoryBackend) queue(name string) chan Delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[name]
	if !ok {
		q = make(chan Delivery, 256)
		b.queues[name] = q
	}
	return q
}

// Publish enqueues payload for queue, never blocking on broker
// confirmation since there is no broker.
func (b *InMemoryBackend) Publish(ctx context.Context, queue string, payload []byte) error {
	q := b.queue(queue)
	delivery := Delivery{
		Tag:     uuid.NewString(),
		Payload: payload,
	}
	delivery.ackFn = func() error { return nil }
	delivery.nackFn = func(requeue bool) error {
		if requeue {
			select {
			case q <- delivery:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
	select {
	case q <- delivery:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns the queue's channel directly; every process-local
// caller competes for the same buffered channel.
func (b *InMemoryBackend) Consume(ctx context.Context, queue string) (<-chan Delivery, error) {
	return b.queue(queue), nil
}

// Close is a no-op; the backend holds no external resources.
func (b *InMemoryBackend) Close() error {
	return nil
}
