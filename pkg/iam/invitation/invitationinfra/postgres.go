package invitationinfra

import (
	"context"
	"database/sql"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/iam/invitation"
	"github.com/hirecopilot/relay/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const inviteColumns = `token, full_name, email, role, company_id, status, invited_by, invite_sent_at, expires_at`

// PostgresInvitationRepository is the PostgreSQL implementation of
// InvitationRepository.
type PostgresInvitationRepository struct {
	db *sqlx.DB
}

// NewPostgresInvitationRepository creates a new invitation repository instance.
func NewPostgresInvitationRepository(db *sqlx.DB) invitation.InvitationRepository {
	return &PostgresInvitationRepository{
		db: db,
	}
}

// Create inserts a new pending invite.
func (r *PostgresInvitationRepository) Create(ctx context.Context, inv *invitation.Invitation) error {
	query := `
		INSERT INTO invitations (
			token, full_name, email, role, company_id, status,
			invited_by, invite_sent_at, expires_at
		) VALUES (
			:token, :full_name, :email, :role, :company_id, :status,
			:invited_by, :invite_sent_at, :expires_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, inv)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			// Token collision is vanishingly unlikely with 256-bit tokens;
			// surface it as a conflict rather than retrying silently.
			return invitation.ErrAlreadyRedeemed()
		}
		return errx.Wrap(err, "failed to create invitation", errx.TypeInternal).
			WithDetail("email", inv.Email)
	}

	return nil
}

// FindByToken returns the invite with the given token, expired or not.
func (r *PostgresInvitationRepository) FindByToken(ctx context.Context, token string) (*invitation.Invitation, error) {
	query := `SELECT ` + inviteColumns + ` FROM invitations WHERE token = $1`

	var inv invitation.Invitation
	err := r.db.GetContext(ctx, &inv, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, invitation.ErrInvitationNotFound()
		}
		return nil, errx.Wrap(err, "failed to find invitation", errx.TypeInternal)
	}

	return &inv, nil
}

// FindByCompany lists pending invites issued for the given company, newest first.
func (r *PostgresInvitationRepository) FindByCompany(ctx context.Context, companyID kernel.CompanyID, opts kernel.PaginationOptions) (kernel.Paginated[invitation.Invitation], error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM invitations WHERE company_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, companyID.String()); err != nil {
		return kernel.Paginated[invitation.Invitation]{}, errx.Wrap(err, "failed to count invitations", errx.TypeInternal).
			WithDetail("company_id", companyID.String())
	}

	query := `
		SELECT ` + inviteColumns + `
		FROM invitations
		WHERE company_id = $1
		ORDER BY invite_sent_at DESC
		LIMIT $2 OFFSET $3`

	offset := (opts.Page - 1) * opts.PageSize
	var invites []invitation.Invitation
	err := r.db.SelectContext(ctx, &invites, query, companyID.String(), opts.PageSize, offset)
	if err != nil {
		return kernel.Paginated[invitation.Invitation]{}, errx.Wrap(err, "failed to list invitations", errx.TypeInternal).
			WithDetail("company_id", companyID.String())
	}

	return kernel.NewPaginated(invites, opts.Page, opts.PageSize, total), nil
}

// ConsumePending atomically deletes the invite iff it is still within its
// redemption window, returning the deleted row. The conditional DELETE is the
// single-winner guard: concurrent redeemers race on one row, and Postgres
// hands it to exactly one of them.
func (r *PostgresInvitationRepository) ConsumePending(ctx context.Context, token string) (*invitation.Invitation, error) {
	query := `
		DELETE FROM invitations
		WHERE token = $1 AND expires_at > NOW()
		RETURNING ` + inviteColumns

	var inv invitation.Invitation
	err := r.db.GetContext(ctx, &inv, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, invitation.ErrInvitationNotFound()
		}
		return nil, errx.Wrap(err, "failed to consume invitation", errx.TypeInternal)
	}

	return &inv, nil
}

// Delete removes the invite unconditionally.
func (r *PostgresInvitationRepository) Delete(ctx context.Context, token string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE token = $1`, token)
	if err != nil {
		return errx.Wrap(err, "failed to delete invitation", errx.TypeInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return invitation.ErrInvitationNotFound()
	}

	return nil
}

// DeleteExpired removes all invites whose window has closed.
func (r *PostgresInvitationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invitations WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, errx.Wrap(err, "failed to sweep expired invitations", errx.TypeInternal)
	}

	swept, err := result.RowsAffected()
	if err != nil {
		return 0, errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}

	return swept, nil
}
