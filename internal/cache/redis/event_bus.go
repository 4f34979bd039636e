package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/copytradebot/internal/domain"
)

// streamMaxLen is the approximate maximum length of the durable event log,
// enforced via XADD MAXLEN ~.
const streamMaxLen int64 = 10000

// EventBus implements domain.EventBus on Redis: each publish goes to a
// Pub/Sub channel for live consumers and is mirrored into a capped stream so
// late consumers can replay recent history. Delivery is at-most-once; the
// core treats publish failures as losses, not errors.
type EventBus struct {
	rdb *redis.Client
}

// NewEventBus creates an EventBus backed by the given Client.
func NewEventBus(c *Client) *EventBus {
	return &EventBus{rdb: c.rdb}
}

// Publish sends the payload to the topic's Pub/Sub channel and appends it to
// the topic's stream.
func (eb *EventBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := eb.rdb.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", topic, err)
	}
	args := &redis.XAddArgs{
		Stream: streamKey(topic),
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"payload": payload},
	}
	if err := eb.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: stream append %s: %w", topic, err)
	}
	return nil
}

// Subscribe creates a Pub/Sub subscription on the topic and returns a
// read-only channel of payloads. The subscription closes with the context,
// and the returned channel closes with it.
func (eb *EventBus) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	pubsub := eb.rdb.Subscribe(ctx, topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", topic, err)
	}

	out := make(chan []byte, 128)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
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

func streamKey(topic string) string {
	return "events:" + topic
}

// Compile-time interface check.
var _ domain.EventBus = (*EventBus)(nil)
