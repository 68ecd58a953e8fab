package userinfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/iam/user"
	"github.com/hirecopilot/relay/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresUserRepository is the PostgreSQL implementation of UserRepository.
type PostgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository creates a new user repository instance.
func NewPostgresUserRepository(db *sqlx.DB) user.UserRepository {
	return &PostgresUserRepository{
		db: db,
	}
}

// FindByID looks up a user by account identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	query := `
		SELECT
			id, full_name, email, company_id, role, is_invited,
			last_login, created_at, updated_at
		FROM users
		WHERE id = $1`

	var u user.User
	err := r.db.GetContext(ctx, &u, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound().WithDetail("user_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find user by id", errx.TypeInternal).
			WithDetail("user_id", id.String())
	}

	return &u, nil
}

// FindByEmail looks up a user by email.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `
		SELECT
			id, full_name, email, company_id, role, is_invited,
			last_login, created_at, updated_at
		FROM users
		WHERE email = $1`

	var u user.User
	err := r.db.GetContext(ctx, &u, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrUserNotFound().WithDetail("email", email)
		}
		return nil, errx.Wrap(err, "failed to find user by email", errx.TypeInternal)
	}

	return &u, nil
}

// FindByCompany lists all users of a company, ordered by full name.
func (r *PostgresUserRepository) FindByCompany(ctx context.Context, companyID kernel.CompanyID) ([]*user.User, error) {
	query := `
		SELECT
			id, full_name, email, company_id, role, is_invited,
			last_login, created_at, updated_at
		FROM users
		WHERE company_id = $1
		ORDER BY full_name ASC`

	var users []user.User
	err := r.db.SelectContext(ctx, &users, query, companyID.String())
	if err != nil {
		return nil, errx.Wrap(err, "failed to find users by company", errx.TypeInternal).
			WithDetail("company_id", companyID.String())
	}

	result := make([]*user.User, len(users))
	for i := range users {
		result[i] = &users[i]
	}

	return result, nil
}

// Save creates or updates a user record.
func (r *PostgresUserRepository) Save(ctx context.Context, u user.User) error {
	query := `
		INSERT INTO users (
			id, full_name, email, company_id, role, is_invited,
			last_login, created_at, updated_at
		) VALUES (
			:id, :full_name, :email, :company_id, :role, :is_invited,
			:last_login, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			company_id = EXCLUDED.company_id,
			role = EXCLUDED.role,
			is_invited = EXCLUDED.is_invited,
			last_login = EXCLUDED.last_login,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, u)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				return user.ErrUserExists().WithDetail("email", u.Email)
			}
		}
		return errx.Wrap(err, "failed to save user", errx.TypeInternal).
			WithDetail("user_id", u.ID.String())
	}

	return nil
}

// UpdateRole sets the role of a user.
func (r *PostgresUserRepository) UpdateRole(ctx context.Context, id kernel.UserID, role user.Role) error {
	query := `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`
	return r.execExpectingRow(ctx, query, "failed to update user role", id, id.String(), string(role))
}

// UpdateCompany moves a user to a company.
func (r *PostgresUserRepository) UpdateCompany(ctx context.Context, id kernel.UserID, companyID kernel.CompanyID) error {
	query := `UPDATE users SET company_id = $2, updated_at = NOW() WHERE id = $1`
	return r.execExpectingRow(ctx, query, "failed to update user company", id, id.String(), companyID.String())
}

// StampLastLogin records the time of the latest successful sign-in.
func (r *PostgresUserRepository) StampLastLogin(ctx context.Context, id kernel.UserID, at time.Time) error {
	query := `UPDATE users SET last_login = $2, updated_at = NOW() WHERE id = $1`
	return r.execExpectingRow(ctx, query, "failed to stamp last login", id, id.String(), at)
}

// Delete removes the user record.
func (r *PostgresUserRepository) Delete(ctx context.Context, id kernel.UserID) error {
	query := `DELETE FROM users WHERE id = $1`
	return r.execExpectingRow(ctx, query, "failed to delete user", id, id.String())
}

func (r *PostgresUserRepository) execExpectingRow(ctx context.Context, query, errMsg string, id kernel.UserID, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errx.Wrap(err, errMsg, errx.TypeInternal).WithDetail("user_id", id.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}

	if rowsAffected == 0 {
		return user.ErrUserNotFound().WithDetail("user_id", id.String())
	}

	return nil
}
