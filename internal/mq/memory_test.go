package mq

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryBackendPublishConsume(t *testing.T) {
	backend := NewInMemoryBackend()
	ctx := context.Background()

	if err := backend.Publish(ctx, "jobs", []byte("1")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	deliveries, err := backend.Consume(ctx, "jobs")
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}

	select {
	case d := <-deliveries:
		if string(d.Payload) != "1" {
			t.Fatalf("payload = %q, want %q", d.Payload, "1")
		}
		if err := d.Ack(); err != nil {
			t.Fatalf("Ack: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestInMemoryBackendNackRequeue(t *testing.T) {
	backend := NewInMemoryBackend()
	ctx := context.Background()

	if err := backend.Publish(ctx, "jobs", []byte("7")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	deliveries, _ := backend.Consume(ctx, "jobs")

	first := <-deliveries
	if err := first.Nack(true); err != nil {
		t.Fatalf("Nack: %v", err)
	}

	select {
	case redelivered := <-deliveries:
		if string(redelivered.Payload) != "7" {
			t.Fatalf("redelivered payload = %q, want %q", redelivered.Payload, "7")
		}
	case <-time.After(time.Second):
		t.Fatal("expected a requeue to redeliver the message")
	}
}

func TestInMemoryBackendNackWithoutRequeueDrops(t *testing.T) {
	backend := NewInMemoryBackend()
	ctx := context.Background()

	if err := backend.Publish(ctx, "jobs", []byte("3")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	deliveries, _ := backend.Consume(ctx, "jobs")

	first := <-deliveries
	if err := first.Nack(false); err != nil {
		t.Fatalf("Nack: %v", err)
	}

	select {
	case <-deliveries:
		t.Fatal("message should not be redelivered when requeue is false")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInMemoryBackendQueuesAreIndependent(t *testing.T) {
	backend := NewInMemoryBackend()
	ctx := context.Background()

	if err := backend.Publish(ctx, "a", []byte("x")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	bDeliveries, _ := backend.Consume(ctx, "b")

	select {
	case <-bDeliveries:
		t.Fatal("queue b should not receive a message published to queue a")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNamespace(t *testing.T) {
	if got := Namespace("", "jobs"); got != "jobs" {
		t.Fatalf("Namespace(\"\", jobs) = %q, want %q", got, "jobs")
	}
	if got := Namespace("judgecore", "jobs"); got != "judgecore.jobs" {
		t.Fatalf("Namespace(judgecore, jobs) = %q, want %q", got, "judgecore.jobs")
	}
}
