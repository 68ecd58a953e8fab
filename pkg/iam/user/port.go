package user

import (
	"context"
	"time"

	"github.com/hirecopilot/relay/pkg/kernel"
)

// UserRepository defines the contract for user-record persistence.
type UserRepository interface {
	// FindByID looks up a user by account identifier.
	FindByID(ctx context.Context, id kernel.UserID) (*User, error)

	// FindByEmail looks up a user by email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByCompany lists all users of a company, ordered by full name.
	FindByCompany(ctx context.Context, companyID kernel.CompanyID) ([]*User, error)

	// Save creates or updates a user record.
	Save(ctx context.Context, u User) error

	// UpdateRole sets the role of a user.
	UpdateRole(ctx context.Context, id kernel.UserID, role Role) error

	// UpdateCompany moves a user to a company (onboarding transition away
	// from the pending sentinel).
	UpdateCompany(ctx context.Context, id kernel.UserID, companyID kernel.CompanyID) error

	// StampLastLogin records the time of the latest successful sign-in.
	StampLastLogin(ctx context.Context, id kernel.UserID, at time.Time) error

	// Delete removes the user record.
	Delete(ctx context.Context, id kernel.UserID) error
}
