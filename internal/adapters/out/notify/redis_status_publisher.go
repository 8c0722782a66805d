package notify

import (
	"context"
	"fmt"

	"orderflow/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisStatusPublisher implements ports.StatusPublisher with PUBLISH.
type RedisStatusPublisher struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisStatusPublisher(client redis.UniversalClient, channel string) *RedisStatusPublisher {
	return &RedisStatusPublisher{client: client, channel: channel}
}

// PublishStatusChange sends the change to current subscribers. Nobody listening is
// not an error.
func (p *RedisStatusPublisher) PublishStatusChange(ctx context.Context, change ports.StatusChange) error {
	payload, err := encodeEvent(change)
	if err != nil {
		return err
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish status change for order %s: %w", change.OrderID, err)
	}
	return nil
}
