// internal/adapters/redis/notifier.go
package redis_a

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/medkitapp/medkit-be/internal/core/ports"
)

// Notifier fans out collection-change notifications over Redis pub/sub. The
// store gateway publishes after each mutation; aisle subscriptions in any
// process consume the stream.
type Notifier struct {
	client *redis.Client
	logger *slog.Logger
}

// Statically assert that *Notifier implements the Notifier port.
var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier creates a new Redis-backed notifier.
func NewNotifier(client *redis.Client, logger *slog.Logger) *Notifier {
	return &Notifier{
		client: client,
		logger: logger.With(slog.String("component", "notifier")),
	}
}

// Publish sends a payload to every subscriber of the channel.
func (n *Notifier) Publish(ctx context.Context, channel, payload string) error {
	if err := n.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish error: %w", err)
	}

	n.logger.DebugContext(ctx, "notification published",
		slog.String("channel", channel))
	return nil
}

// Subscribe delivers channel payloads to onMessage until the returned
// subscription is cancelled. Receive failures other than cancellation are
// reported through onError and end the subscription.
func (n *Notifier) Subscribe(ctx context.Context, channel string, onMessage func(payload string), onError func(error)) (ports.Subscription, error) {
	pubsub := n.client.Subscribe(ctx, channel)

	// Force the SUBSCRIBE round trip so a dead broker fails here, not in the
	// receive loop.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe error: %w", err)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					if subCtx.Err() == nil && onError != nil {
						onError(fmt.Errorf("redis subscription closed: channel %s", channel))
					}
					return
				}
				onMessage(msg.Payload)
			}
		}
	}()

	n.logger.Debug("subscribed", slog.String("channel", channel))

	var once sync.Once
	return ports.SubscriptionFunc(func() {
		once.Do(func() {
			cancel()
			if err := pubsub.Close(); err != nil {
				n.logger.Warn("failed to close subscription",
					slog.String("channel", channel),
					slog.String("error", err.Error()))
			}
		})
	}), nil
}
