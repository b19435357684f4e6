// internal/core/ports/subscription.go
package ports

// Subscription is a handle to a push subscription. Cancel stops further
// callback delivery and must be safe to call more than once.
type Subscription interface {
	Cancel()
}

// SubscriptionFunc adapts a plain function to the Subscription interface.
type SubscriptionFunc func()

func (f SubscriptionFunc) Cancel() { f() }
