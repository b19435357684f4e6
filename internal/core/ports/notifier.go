// internal/core/ports/notifier.go
package ports

import "context"

// Notifier fans out collection-change notifications between processes. The
// database adapter publishes after every medicine mutation and consumes the
// stream to drive the aisle subscription.
type Notifier interface {
	Publish(ctx context.Context, channel, payload string) error

	// Subscribe delivers payloads for the channel until the subscription is
	// cancelled. Delivery errors are reported through onError.
	Subscribe(ctx context.Context, channel string, onMessage func(payload string), onError func(error)) (Subscription, error)
}
