package identityinfra

import (
	"context"
	"database/sql"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/iam/identity"
	"github.com/hirecopilot/relay/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresAccountRepository is the PostgreSQL implementation of AccountRepository.
type PostgresAccountRepository struct {
	db *sqlx.DB
}

// NewPostgresAccountRepository creates a new account repository instance.
func NewPostgresAccountRepository(db *sqlx.DB) identity.AccountRepository {
	return &PostgresAccountRepository{
		db: db,
	}
}

// Create persists a new account.
func (r *PostgresAccountRepository) Create(ctx context.Context, account identity.Account) error {
	query := `
		INSERT INTO accounts (
			id, email, password_hash, auth_method, display_name,
			email_verified, disabled, created_at, updated_at
		) VALUES (
			:id, :email, :password_hash, :auth_method, :display_name,
			:email_verified, :disabled, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, account)
	if err != nil {
		// Unique violation on the email column means the address is claimed.
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				return identity.ErrEmailInUse().WithDetail("email", account.Email)
			}
		}
		return errx.Wrap(err, "failed to create account", errx.TypeInternal).
			WithDetail("account_id", account.ID.String())
	}

	return nil
}

// FindByID looks up an account by its identifier.
func (r *PostgresAccountRepository) FindByID(ctx context.Context, id kernel.UserID) (*identity.Account, error) {
	query := `
		SELECT
			id, email, password_hash, auth_method, display_name,
			email_verified, disabled, created_at, updated_at
		FROM accounts
		WHERE id = $1`

	var account identity.Account
	err := r.db.GetContext(ctx, &account, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, identity.ErrAccountNotFound().WithDetail("account_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find account by id", errx.TypeInternal).
			WithDetail("account_id", id.String())
	}

	return &account, nil
}

// FindByEmail looks up an account by email.
func (r *PostgresAccountRepository) FindByEmail(ctx context.Context, email string) (*identity.Account, error) {
	query := `
		SELECT
			id, email, password_hash, auth_method, display_name,
			email_verified, disabled, created_at, updated_at
		FROM accounts
		WHERE email = $1`

	var account identity.Account
	err := r.db.GetContext(ctx, &account, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, identity.ErrAccountNotFound().WithDetail("email", email)
		}
		return nil, errx.Wrap(err, "failed to find account by email", errx.TypeInternal)
	}

	return &account, nil
}

// Save updates a mutable account.
func (r *PostgresAccountRepository) Save(ctx context.Context, account identity.Account) error {
	query := `
		UPDATE accounts SET
			email = :email,
			password_hash = :password_hash,
			auth_method = :auth_method,
			display_name = :display_name,
			email_verified = :email_verified,
			disabled = :disabled,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, account)
	if err != nil {
		return errx.Wrap(err, "failed to update account", errx.TypeInternal).
			WithDetail("account_id", account.ID.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}

	if rowsAffected == 0 {
		return identity.ErrAccountNotFound().WithDetail("account_id", account.ID.String())
	}

	return nil
}

// Disable marks the account disabled so authentication fails for it.
func (r *PostgresAccountRepository) Disable(ctx context.Context, id kernel.UserID) error {
	query := `UPDATE accounts SET disabled = TRUE, updated_at = NOW() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to disable account", errx.TypeInternal).
			WithDetail("account_id", id.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}

	if rowsAffected == 0 {
		return identity.ErrAccountNotFound().WithDetail("account_id", id.String())
	}

	return nil
}
