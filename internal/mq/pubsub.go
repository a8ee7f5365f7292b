package mq

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/pubsub"
)

// PubSubBackend is the alternate Message Bus Adapter implementation,
// backed by Google Cloud Pub/Sub. Queue names map to topic names; a
// single "<queue>-sub" subscription is shared by every competing
// consumer process, matching Pub/Sub's own competing-pull semantics.
type PubSubBackend struct {
	client *pubsub.Client
}

// NewPubSubBackend constructs a Pub/Sub backend for the given project.
func NewPubSubBackend(ctx context.Context, projectID string) (*PubSubBackend, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errors.New("mq: pubsub project id is required")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &PubSubBackend{client: client}, nil
}

func (p *PubSubBackend) ensureTopic(ctx context.Context, name string) (*pubsub.Topic, error) {
	topic := p.client.Topic(name)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return p.client.CreateTopic(ctx, name)
	}
	return topic, nil
}

func (p *PubSubBackend) ensureSubscription(ctx context.Context, name string, topic *pubsub.Topic) (*pubsub.Subscription, error) {
	sub := p.client.Subscription(name)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return p.client.CreateSubscription(ctx, name, pubsub.SubscriptionConfig{Topic: topic})
	}
	return sub, nil
}

// Publish ensures the topic exists and publishes payload, blocking
// until the broker confirms.
func (p *PubSubBackend) Publish(ctx context.Context, queue string, payload []byte) error {
	topic, err := p.ensureTopic(ctx, queue)
	if err != nil {
		return err
	}
	_, err = topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	return err
}

// Consume starts a background pull on a shared subscription and
// translates Pub/Sub's Ack()/Nack() callbacks into Delivery values.
// Pub/Sub's own flow control holds the in-flight message until the
// returned Delivery is acked or nacked, since sub.Receive's callback
// blocks on a reply channel.
func (p *PubSubBackend) Consume(ctx context.Context, queue string) (<-chan Delivery, error) {
	topic, err := p.ensureTopic(ctx, queue)
	if err != nil {
		return nil, err
	}
	sub, err := p.ensureSubscription(ctx, queue+"-sub", topic)
	if err != nil {
		return nil, err
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		_ = sub.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
			done := make(chan struct{})
			delivery := Delivery{
				Tag:     msg.ID,
				Payload: msg.Data,
				ackFn: func() error {
					msg.Ack()
					close(done)
					return nil
				},
				nackFn: func(requeue bool) error {
					if requeue {
						msg.Nack()
					} else {
						msg.Ack()
					}
					close(done)
					return nil
				},
			}
			select {
			case out <- delivery:
			case <-msgCtx.Done():
				return
			}
			select {
			case <-done:
			case <-msgCtx.Done():
			}
		})
	}()
	return out, nil
}

// Close closes the underlying Pub/Sub client.
func (p *PubSubBackend) Close() error {
	return p.client.Close()
}
