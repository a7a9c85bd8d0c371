package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewRedisFanout returns a handler that publishes each event as JSON on
// a Redis pub/sub channel for out-of-process consumers.
func NewRedisFanout(client *redis.Client, channel string) EventHandler {
	return func(ctx context.Context, event Event) error {
		body, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", event.Type, err)
		}
		return client.Publish(ctx, channel, body).Err()
	}
}
