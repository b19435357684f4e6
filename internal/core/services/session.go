// internal/core/services/session.go
package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/medkitapp/medkit-be/internal/core/domain"
	"github.com/medkitapp/medkit-be/internal/core/ports"
)

// SessionManager owns the current session identity. It is either
// unauthenticated (nil user) or authenticated, driven by the auth gateway's
// identity-change stream or by direct overrides from sign-in flows.
type SessionManager struct {
	auth   ports.AuthGateway
	logger *slog.Logger

	mu   sync.Mutex
	user *domain.AppUser
	sub  ports.Subscription
}

// NewSessionManager creates an unauthenticated session manager.
func NewSessionManager(auth ports.AuthGateway, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		auth:   auth,
		logger: logger.With(slog.String("service", "session")),
	}
}

// Listen subscribes to the gateway's identity-change stream. Receiving an
// identity authenticates the session; receiving nil clears it and
// unsubscribes (self-teardown on logout, as opposed to an explicit Unbind).
//
// Listen does not replace a prior subscription: calling it again without
// Unbind stacks a second live subscription. The warning below flags it.
func (s *SessionManager) Listen() {
	s.mu.Lock()
	if s.sub != nil {
		s.logger.Warn("Listen called with an active subscription; subscriptions now stack")
	}
	s.mu.Unlock()

	sub := s.auth.ListenIdentity(func(user *domain.AppUser) {
		s.mu.Lock()
		s.user = user
		if user == nil {
			if s.sub != nil {
				s.sub.Cancel()
				s.sub = nil
			}
			s.mu.Unlock()
			s.logger.Info("session ended")
			return
		}
		s.mu.Unlock()
		s.logger.Info("session identity changed",
			slog.String("uid", user.ID))
	})

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
}

// UpdateSession overrides the current identity directly, regardless of
// subscription state. Used by sign-in and sign-up flows that resolve the
// identity out-of-band from the push subscription.
func (s *SessionManager) UpdateSession(user *domain.AppUser) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
}

// Unbind cancels the identity subscription if one exists. Idempotent.
func (s *SessionManager) Unbind() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

// Current returns the session identity, or nil when unauthenticated.
func (s *SessionManager) Current() *domain.AppUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Stopper is any per-feature feed torn down on sign-out.
type Stopper interface {
	Stop()
}

// AuthService drives the sign-up/sign-in/sign-out flows over the auth
// gateway, keeping the session manager and the users collection in step.
type AuthService struct {
	auth    ports.AuthGateway
	gateway ports.StoreGateway
	session *SessionManager
	feeds   []Stopper
	logger  *slog.Logger

	mu  sync.Mutex
	err *domain.AppError
}

// NewAuthService creates an auth service. The feeds are stopped on sign-out.
func NewAuthService(auth ports.AuthGateway, gateway ports.StoreGateway, session *SessionManager, feeds []Stopper, logger *slog.Logger) *AuthService {
	return &AuthService{
		auth:    auth,
		gateway: gateway,
		session: session,
		feeds:   feeds,
		logger:  logger.With(slog.String("service", "auth")),
	}
}

// Err returns the last recorded error, or nil after a successful operation.
func (a *AuthService) Err() *domain.AppError {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

func (a *AuthService) setErr(err *domain.AppError) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

// SignUp registers a new account, records the user in the users collection
// and authenticates the session.
func (a *AuthService) SignUp(ctx context.Context, email, password string) error {
	user, err := a.auth.SignUp(ctx, email, password)
	if err != nil {
		appErr := domain.ClassifyAuthError(err)
		a.setErr(appErr)
		a.logger.ErrorContext(ctx, "sign-up failed",
			slog.String("error", err.Error()))
		return appErr
	}

	if err := a.gateway.CreateUser(ctx, *user); err != nil {
		// The account exists; the email lookup will fall back to a sentinel.
		a.logger.WarnContext(ctx, "failed to record user in users collection",
			slog.String("uid", user.ID),
			slog.String("error", err.Error()))
	}

	a.setErr(nil)
	a.session.UpdateSession(user)
	a.logger.InfoContext(ctx, "signed up", slog.String("uid", user.ID))
	return nil
}

// SignIn authenticates an existing account.
func (a *AuthService) SignIn(ctx context.Context, email, password string) error {
	user, err := a.auth.SignIn(ctx, email, password)
	if err != nil {
		appErr := domain.ClassifyAuthError(err)
		a.setErr(appErr)
		a.logger.ErrorContext(ctx, "sign-in failed",
			slog.String("error", err.Error()))
		return appErr
	}

	a.setErr(nil)
	a.session.UpdateSession(user)
	a.logger.InfoContext(ctx, "signed in", slog.String("uid", user.ID))
	return nil
}

// SignOut stops the per-feature feeds, signs out at the gateway and clears
// the session. On gateway failure the session is left untouched.
func (a *AuthService) SignOut(ctx context.Context) error {
	for _, f := range a.feeds {
		f.Stop()
	}

	if err := a.auth.SignOut(ctx); err != nil {
		appErr := domain.ClassifyAuthError(err)
		a.setErr(appErr)
		a.logger.ErrorContext(ctx, "sign-out failed",
			slog.String("error", err.Error()))
		return appErr
	}

	a.setErr(nil)
	a.session.UpdateSession(nil)
	a.logger.InfoContext(ctx, "signed out")
	return nil
}
