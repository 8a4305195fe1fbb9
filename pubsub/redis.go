package pubsub

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis backend
type RedisConfig struct {
	// Client is the Redis client to use. If nil, a client for
	// localhost:6379 is created.
	Client redis.UniversalClient
	// KeyPrefix is prepended to every channel name. Defaults to
	// "graphql:pubsub:".
	KeyPrefix string
}

// Redis is a PubSub over Redis PUBLISH/SUBSCRIBE so that events reach
// subscribers on every server instance
type Redis struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedis creates a Redis backed PubSub
func NewRedis(config RedisConfig) *Redis {
	client := config.Client
	if client == nil {
		client = redis.NewClient(&redis.Options{
			Addr: "localhost:6379",
		})
	}

	keyPrefix := config.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "graphql:pubsub:"
	}

	return &Redis{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Publish implements PubSub
func (r *Redis) Publish(ctx context.Context, topic string, payload []byte) error {
	channel := r.channel(topic)
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

// Subscribe implements PubSub
func (r *Redis) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	channel := r.channel(topic)
	ps := r.client.Subscribe(ctx, channel)

	// wait for the subscription to be confirmed so no publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer ps.Close()

		messages := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close closes the Redis client
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) channel(topic string) string {
	return r.keyPrefix + topic
}
