package main

import (
	"context"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/risbow/risbow-backend/pkg/outbox/registry"
)

type publisherSource interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

// pubsubSink adapts the shared Pub/Sub client to the relay.
type pubsubSink struct {
	client publisherSource
}

func (s pubsubSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s pubsubSink) Send(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	pub := s.client.Publisher(topic)
	if pub == nil {
		return "", registry.Permanent(fmt.Errorf("no publisher for topic %q", topic))
	}
	return pub.Publish(ctx, &gcppubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
}
