// internal/core/ports/auth_gateway.go
package ports

import (
	"context"

	"github.com/medkitapp/medkit-be/internal/core/domain"
)

// IdentityFunc receives the new identity on every session change. A nil user
// means the session ended.
type IdentityFunc func(user *domain.AppUser)

// AuthGateway is the port for the authentication provider.
type AuthGateway interface {
	SignUp(ctx context.Context, email, password string) (*domain.AppUser, error)
	SignIn(ctx context.Context, email, password string) (*domain.AppUser, error)
	SignOut(ctx context.Context) error

	// ListenIdentity registers a listener for identity changes. Each call
	// creates an independent subscription.
	ListenIdentity(onChange IdentityFunc) Subscription
}
