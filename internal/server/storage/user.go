package storage

import (
	"context"
	"time"

	"github.com/iudanet/gamelib/internal/models"
)

// UserStorage defines interface for credential persistence.
// Identifier lookups are case-insensitive; uniqueness is enforced by the storage itself.
type UserStorage interface {
	// CreateUser creates a new user in the storage
	// Returns ErrUserAlreadyExists if identifier is taken (in any letter case)
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByIdentifier retrieves user by identifier, ignoring letter case
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error)

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// UpdateLastLogin updates the last login timestamp
	// Returns ErrUserNotFound if user doesn't exist
	UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error
}

// Pinger is implemented by storages that can report their availability
type Pinger interface {
	Ping(ctx context.Context) error
}
