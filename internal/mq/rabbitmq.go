package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitBackend is the primary Message Bus Adapter implementation,
// backed by a single AMQP connection/channel pair with manual
// acknowledgment and one durable queue per consumed name.
type RabbitBackend struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitBackend dials url and opens a channel with prefetch 1, so
// a worker holds exactly one unacknowledged job at a time.
func NewRabbitBackend(url string) (*RabbitBackend, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("mq: rabbitmq url is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &RabbitBackend{conn: conn, channel: ch}, nil
}

func (r *RabbitBackend) declareQueue(name string) (amqp.Queue, error) {
	return r.channel.QueueDeclare(name, true, false, false, false, nil)
}

// Publish declares the queue (idempotent) and publishes durably.
func (r *RabbitBackend) Publish(ctx context.Context, queue string, payload []byte) error {
	if _, err := r.declareQueue(queue); err != nil {
		return err
	}
	return r.channel.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/octet-stream",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
}

// Consume declares the queue and returns a channel of Delivery backed
// by manual-ack AMQP consumption.
func (r *RabbitBackend) Consume(ctx context.Context, queue string) (<-chan Delivery, error) {
	if _, err := r.declareQueue(queue); err != nil {
		return nil, err
	}

	// Each Consume call needs its own tag: WorkerConcurrency lets
	// multiple consume-loop goroutines share this one channel, and the
	// broker rejects a second channel.Consume with a tag already in use.
	consumerTag := fmt.Sprintf("judgecore-%s-%s", queue, uuid.New().String())
	raw, err := r.channel.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, err
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		defer func() { _ = r.channel.Cancel(consumerTag, false) }()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-raw:
				if !ok {
					return
				}
				delivery := d
				out <- Delivery{
					Tag:     fmt.Sprint(delivery.DeliveryTag),
					Payload: delivery.Body,
					ackFn:   func() error { return delivery.Ack(false) },
					nackFn:  func(requeue bool) error { return delivery.Nack(false, requeue) },
				}
			}
		}
	}()
	return out, nil
}

// Close closes the channel and connection.
func (r *RabbitBackend) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
