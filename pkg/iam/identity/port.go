package identity

import (
	"context"

	"github.com/hirecopilot/relay/pkg/kernel"
)

// AccountRepository defines the contract for credential-store persistence.
type AccountRepository interface {
	// Create persists a new account. Fails with EmailInUse when the email is
	// already claimed by any account.
	Create(ctx context.Context, account Account) error

	// FindByID looks up an account by its identifier.
	FindByID(ctx context.Context, id kernel.UserID) (*Account, error)

	// FindByEmail looks up an account by email.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// Save updates a mutable account (disabled flag, verification, hash).
	Save(ctx context.Context, account Account) error

	// Disable marks the account disabled so authentication fails for it.
	Disable(ctx context.Context, id kernel.UserID) error
}

// PasswordService hashes and verifies passwords.
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}
