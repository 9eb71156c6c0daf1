package ports

import (
	"context"
	"time"

	"github.com/clintrack/trial-registry/internal/core/domain"
)

// ProfileUpdate carries the optional profile fields a user may change.
// Nil pointers leave the stored value untouched.
type ProfileUpdate struct {
	FirstName  *string
	LastName   *string
	Department *string
}

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmailOrUsername matches the identifier against either unique key.
	FindByEmailOrUsername(ctx context.Context, identifier string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// List returns all accounts, newest first. Used by the admin surface.
	List(ctx context.Context) ([]*domain.User, error)
}
