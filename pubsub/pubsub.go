// Package pubsub fans published payloads out to topic subscribers. It feeds
// subscription resolvers that need events produced by other operations or
// other server instances.
package pubsub

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed PubSub
var ErrClosed = errors.New("pubsub closed")

// PubSub publishes payloads to topics
type PubSub interface {
	// Publish delivers payload to every current subscriber of topic
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe returns a channel of payloads published to topic. The
	// channel is closed once ctx is done or the PubSub is closed.
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)

	Close() error
}
