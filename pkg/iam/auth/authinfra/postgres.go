package authinfra

import (
	"context"
	"database/sql"
	"time"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/iam/auth"
	"github.com/hirecopilot/relay/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// ============================================================================
// Refresh tokens
// ============================================================================

// PostgresTokenRepository is the PostgreSQL implementation of TokenRepository.
type PostgresTokenRepository struct {
	db *sqlx.DB
}

func NewPostgresTokenRepository(db *sqlx.DB) auth.TokenRepository {
	return &PostgresTokenRepository{db: db}
}

func (r *PostgresTokenRepository) SaveRefreshToken(ctx context.Context, token auth.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, token, user_id, company_id, expires_at, created_at, is_revoked)
		VALUES (:id, :token, :user_id, :company_id, :expires_at, :created_at, :is_revoked)`

	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return errx.Wrap(err, "failed to save refresh token", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresTokenRepository) FindRefreshToken(ctx context.Context, tokenValue string) (*auth.RefreshToken, error) {
	query := `
		SELECT id, token, user_id, company_id, expires_at, created_at, is_revoked
		FROM refresh_tokens
		WHERE token = $1`

	var token auth.RefreshToken
	if err := r.db.GetContext(ctx, &token, query, tokenValue); err != nil {
		if err == sql.ErrNoRows {
			return nil, auth.ErrInvalidRefreshToken()
		}
		return nil, errx.Wrap(err, "failed to find refresh token", errx.TypeInternal)
	}
	return &token, nil
}

func (r *PostgresTokenRepository) RevokeRefreshToken(ctx context.Context, tokenValue string) error {
	query := `UPDATE refresh_tokens SET is_revoked = TRUE WHERE token = $1`
	if _, err := r.db.ExecContext(ctx, query, tokenValue); err != nil {
		return errx.Wrap(err, "failed to revoke refresh token", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresTokenRepository) RevokeAllUserTokens(ctx context.Context, userID kernel.UserID) error {
	query := `UPDATE refresh_tokens SET is_revoked = TRUE WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID.String()); err != nil {
		return errx.Wrap(err, "failed to revoke user tokens", errx.TypeInternal).
			WithDetail("user_id", userID.String())
	}
	return nil
}

func (r *PostgresTokenRepository) CleanExpiredTokens(ctx context.Context) error {
	query := `DELETE FROM refresh_tokens WHERE expires_at < NOW() OR is_revoked = TRUE`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return errx.Wrap(err, "failed to clean expired tokens", errx.TypeInternal)
	}
	return nil
}

// ============================================================================
// Sessions
// ============================================================================

// PostgresSessionRepository is the PostgreSQL implementation of SessionRepository.
type PostgresSessionRepository struct {
	db *sqlx.DB
}

func NewPostgresSessionRepository(db *sqlx.DB) auth.SessionRepository {
	return &PostgresSessionRepository{db: db}
}

const sessionColumns = `id, user_id, company_id, session_token, ip_address, user_agent, expires_at, created_at, last_activity`

func (r *PostgresSessionRepository) SaveSession(ctx context.Context, session auth.UserSession) error {
	query := `
		INSERT INTO user_sessions (` + sessionColumns + `)
		VALUES (:id, :user_id, :company_id, :session_token, :ip_address, :user_agent, :expires_at, :created_at, :last_activity)`

	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return errx.Wrap(err, "failed to save session", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresSessionRepository) FindSession(ctx context.Context, sessionID string) (*auth.UserSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE id = $1`

	var session auth.UserSession
	if err := r.db.GetContext(ctx, &session, query, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errx.NotFound("session not found")
		}
		return nil, errx.Wrap(err, "failed to find session", errx.TypeInternal)
	}
	return &session, nil
}

func (r *PostgresSessionRepository) FindUserSessions(ctx context.Context, userID kernel.UserID) ([]*auth.UserSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE user_id = $1 ORDER BY last_activity DESC`

	var sessions []auth.UserSession
	if err := r.db.SelectContext(ctx, &sessions, query, userID.String()); err != nil {
		return nil, errx.Wrap(err, "failed to find user sessions", errx.TypeInternal)
	}

	result := make([]*auth.UserSession, len(sessions))
	for i := range sessions {
		result[i] = &sessions[i]
	}
	return result, nil
}

func (r *PostgresSessionRepository) RotateSessionToken(ctx context.Context, oldToken, newToken string) error {
	query := `UPDATE user_sessions SET session_token = $2, last_activity = NOW() WHERE session_token = $1`
	if _, err := r.db.ExecContext(ctx, query, oldToken, newToken); err != nil {
		return errx.Wrap(err, "failed to rotate session token", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresSessionRepository) RevokeSession(ctx context.Context, sessionID string) error {
	query := `DELETE FROM user_sessions WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return errx.Wrap(err, "failed to revoke session", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresSessionRepository) RevokeAllUserSessions(ctx context.Context, userID kernel.UserID) error {
	query := `DELETE FROM user_sessions WHERE user_id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID.String()); err != nil {
		return errx.Wrap(err, "failed to revoke user sessions", errx.TypeInternal).
			WithDetail("user_id", userID.String())
	}
	return nil
}

func (r *PostgresSessionRepository) CleanExpiredSessions(ctx context.Context) error {
	query := `DELETE FROM user_sessions WHERE expires_at < NOW()`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return errx.Wrap(err, "failed to clean expired sessions", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresSessionRepository) FindIdleSessions(ctx context.Context, idleTimeout time.Duration) ([]*auth.UserSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE last_activity < NOW() - $1::interval`

	var sessions []auth.UserSession
	if err := r.db.SelectContext(ctx, &sessions, query, idleTimeout.String()); err != nil {
		return nil, errx.Wrap(err, "failed to find idle sessions", errx.TypeInternal)
	}

	result := make([]*auth.UserSession, len(sessions))
	for i := range sessions {
		result[i] = &sessions[i]
	}
	return result, nil
}

// ============================================================================
// Email verification tokens
// ============================================================================

// PostgresVerificationRepository is the PostgreSQL implementation of
// EmailVerificationRepository.
type PostgresVerificationRepository struct {
	db *sqlx.DB
}

func NewPostgresVerificationRepository(db *sqlx.DB) auth.EmailVerificationRepository {
	return &PostgresVerificationRepository{db: db}
}

func (r *PostgresVerificationRepository) SaveVerificationToken(ctx context.Context, token auth.EmailVerificationToken) error {
	query := `
		INSERT INTO email_verification_tokens (id, token, user_id, email, expires_at, created_at, is_used)
		VALUES (:id, :token, :user_id, :email, :expires_at, :created_at, :is_used)`

	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return errx.Wrap(err, "failed to save verification token", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresVerificationRepository) FindVerificationToken(ctx context.Context, tokenValue string) (*auth.EmailVerificationToken, error) {
	query := `
		SELECT id, token, user_id, email, expires_at, created_at, is_used
		FROM email_verification_tokens
		WHERE token = $1`

	var token auth.EmailVerificationToken
	if err := r.db.GetContext(ctx, &token, query, tokenValue); err != nil {
		if err == sql.ErrNoRows {
			return nil, auth.ErrInvalidVerificationToken()
		}
		return nil, errx.Wrap(err, "failed to find verification token", errx.TypeInternal)
	}
	return &token, nil
}

func (r *PostgresVerificationRepository) ConsumeVerificationToken(ctx context.Context, tokenValue string) error {
	query := `UPDATE email_verification_tokens SET is_used = TRUE WHERE token = $1 AND is_used = FALSE`

	result, err := r.db.ExecContext(ctx, query, tokenValue)
	if err != nil {
		return errx.Wrap(err, "failed to consume verification token", errx.TypeInternal)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return auth.ErrInvalidVerificationToken()
	}
	return nil
}

func (r *PostgresVerificationRepository) CleanExpiredVerificationTokens(ctx context.Context) error {
	query := `DELETE FROM email_verification_tokens WHERE expires_at < NOW() OR is_used = TRUE`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return errx.Wrap(err, "failed to clean expired verification tokens", errx.TypeInternal)
	}
	return nil
}
