package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisStatusSubscriber relays events published on a channel to a callback.
type RedisStatusSubscriber struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

func NewRedisStatusSubscriber(client redis.UniversalClient, channel string, logger *slog.Logger) *RedisStatusSubscriber {
	return &RedisStatusSubscriber{
		client:  client,
		channel: channel,
		logger:  logger.With("component", "status_subscriber"),
	}
}

// Run subscribes and calls deliver for every well-formed event until ctx is done.
// Malformed messages are logged and skipped. go-redis re-subscribes on its own after
// a dropped connection; events published meanwhile are lost.
func (s *RedisStatusSubscriber) Run(ctx context.Context, deliver func(StatusEvent)) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer func() { _ = pubsub.Close() }()

	// Wait for the subscription confirmation so the caller sees connection errors.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.channel, err)
	}
	s.logger.InfoContext(ctx, "Subscribed to status changes", "channel", s.channel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			event, err := decodeEvent([]byte(msg.Payload))
			if err != nil {
				s.logger.WarnContext(ctx, "Dropping malformed status event", "error", err)
				continue
			}
			deliver(event)
		}
	}
}
