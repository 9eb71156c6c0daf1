package ports

import (
	"context"
	"time"

	"github.com/clintrack/trial-registry/internal/core/domain"
)

// Session identifies an established login. The transport layer turns it
// into an HttpOnly cookie; TokenID is what logout revokes.
type Session struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// RegisterInput carries a self-service registration payload. Role may only
// be researcher or coordinator; admins are provisioned out of band.
type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Role       string
	Department string
}

// AuthService implements the authentication gate: credential checks,
// portal enforcement and session issuance.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*Session, *domain.User, error)
	// Login resolves identifier as email or username. Unknown account,
	// inactive account and wrong password all fail identically.
	Login(ctx context.Context, identifier, password string, portal domain.Portal) (*Session, *domain.User, error)
	// Logout revokes the session token for its remaining lifetime.
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*domain.User, error)
	// ListUsers backs the admin-only account listing.
	ListUsers(ctx context.Context) ([]*domain.User, error)
}
