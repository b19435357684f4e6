// internal/adapters/auth/auth_gateway.go

// Package auth implements the auth gateway over a Postgres credentials table
// with bcrypt password hashing and JWT session tokens. Identity changes fan
// out to in-process listeners.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/medkitapp/medkit-be/internal/adapters/db"
	"github.com/medkitapp/medkit-be/internal/core/domain"
	"github.com/medkitapp/medkit-be/internal/core/ports"
)

// Config holds auth adapter configuration
type Config struct {
	JWTSecret     string
	JWTExpiration time.Duration
	BcryptCost    int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() *Config {
	return &Config{
		JWTSecret:     "development-secret-change-in-production",
		JWTExpiration: 24 * time.Hour,
		BcryptCost:    bcrypt.DefaultCost,
	}
}

// Gateway implements ports.AuthGateway.
type Gateway struct {
	db     *db.Database
	config *Config
	logger *slog.Logger

	mu        sync.Mutex
	token     string
	listeners map[int]ports.IdentityFunc
	nextID    int
}

// Statically assert that *Gateway implements the AuthGateway interface.
var _ ports.AuthGateway = (*Gateway)(nil)

// NewGateway creates a new auth gateway.
func NewGateway(database *db.Database, config *Config, logger *slog.Logger) *Gateway {
	if config == nil {
		config = DefaultConfig()
	}
	return &Gateway{
		db:        database,
		config:    config,
		logger:    logger.With(slog.String("gateway", "auth")),
		listeners: make(map[int]ports.IdentityFunc),
	}
}

// SignUp registers a new account and starts a session for it.
func (g *Gateway) SignUp(ctx context.Context, email, password string) (*domain.AppUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	uid := uuid.NewString()
	query := `INSERT INTO credentials (id, email, password_hash) VALUES ($1, $2, $3)`
	if _, err := g.db.Exec(ctx, query, uid, email, hash); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return nil, domain.ErrAuthEmailInUse
		}
		return nil, fmt.Errorf("failed to create credentials: %w", err)
	}

	user := &domain.AppUser{ID: uid, Email: email}
	if err := g.startSession(user); err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "account created", slog.String("uid", uid))
	return user, nil
}

// SignIn verifies the credentials and starts a session.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (*domain.AppUser, error) {
	var uid, hash string
	err := g.db.QueryRow(ctx,
		`SELECT id, password_hash FROM credentials WHERE email = $1`, email,
	).Scan(&uid, &hash)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrAuthUserNotFound
		}
		return nil, fmt.Errorf("failed to look up credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, domain.ErrAuthWrongPassword
	}

	user := &domain.AppUser{ID: uid, Email: email}
	if err := g.startSession(user); err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "signed in", slog.String("uid", uid))
	return user, nil
}

// SignOut ends the current session and notifies listeners with nil.
func (g *Gateway) SignOut(ctx context.Context) error {
	g.mu.Lock()
	g.token = ""
	listeners := g.snapshotListeners()
	g.mu.Unlock()

	for _, l := range listeners {
		l(nil)
	}

	g.logger.InfoContext(ctx, "signed out")
	return nil
}

// ListenIdentity registers a listener for identity changes. Each call
// creates an independent subscription.
func (g *Gateway) ListenIdentity(onChange ports.IdentityFunc) ports.Subscription {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = onChange
	g.mu.Unlock()

	var once sync.Once
	return ports.SubscriptionFunc(func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.listeners, id)
			g.mu.Unlock()
		})
	})
}

// Token returns the JWT of the current session, or empty when signed out.
func (g *Gateway) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// VerifyToken parses a session token and returns the user id it names.
func (g *Gateway) VerifyToken(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(g.config.JWTSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("invalid token subject: %w", err)
	}
	return sub, nil
}

func (g *Gateway) startSession(user *domain.AppUser) error {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.config.JWTExpiration)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(g.config.JWTSecret))
	if err != nil {
		return fmt.Errorf("failed to sign session token: %w", err)
	}

	g.mu.Lock()
	g.token = token
	listeners := g.snapshotListeners()
	g.mu.Unlock()

	for _, l := range listeners {
		l(user)
	}
	return nil
}

// snapshotListeners must be called with g.mu held.
func (g *Gateway) snapshotListeners() []ports.IdentityFunc {
	out := make([]ports.IdentityFunc, 0, len(g.listeners))
	for _, l := range g.listeners {
		out = append(out, l)
	}
	return out
}
