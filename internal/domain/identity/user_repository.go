package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Save creates or updates a user
	Save(ctx context.Context, user *User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByIDs loads several users at once, skipping unknown IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)

	// FindByRole returns active users whose primary or additional roles include role
	FindByRole(ctx context.Context, role Role) ([]*User, error)
}
