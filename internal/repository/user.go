package repository

import (
	"context"

	"github.com/mehditi940/Demo-environnemt-CSC/internal/domain"
)

// UserRepository stores and retrieves user accounts.
type UserRepository interface {
	// FindByUsername returns ErrUserNotFound when no such user exists.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)

	// FindByID returns ErrUserNotFound when no such user exists.
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// Save creates or updates a user. Unique constraint violations map to
	// ErrDuplicateEntry.
	Save(ctx context.Context, user *domain.User) error
}
