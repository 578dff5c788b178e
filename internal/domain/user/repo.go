package user

import (
	"context"

	"github.com/nutrilab/nutrilab/internal/platform/auth"
)

type UserRepository interface {
	// Create inserts u unless a user with the same id exists. It reports
	// whether a row was written.
	Create(ctx context.Context, u *User) (bool, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
	UpdateRole(ctx context.Context, id string, role auth.Role, nutriCode *string) (*User, error)
}
