package auth

import (
	"context"
	"time"

	"github.com/hirecopilot/relay/pkg/kernel"
)

// TokenRepository defines the contract for refresh-token persistence
type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, token RefreshToken) error
	FindRefreshToken(ctx context.Context, tokenValue string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenValue string) error
	RevokeAllUserTokens(ctx context.Context, userID kernel.UserID) error
	CleanExpiredTokens(ctx context.Context) error
}

// SessionRepository defines the contract for session persistence
type SessionRepository interface {
	SaveSession(ctx context.Context, session UserSession) error
	FindSession(ctx context.Context, sessionID string) (*UserSession, error)
	FindUserSessions(ctx context.Context, userID kernel.UserID) ([]*UserSession, error)
	RevokeSession(ctx context.Context, sessionID string) error
	RevokeAllUserSessions(ctx context.Context, userID kernel.UserID) error
	CleanExpiredSessions(ctx context.Context) error

	// RotateSessionToken swaps the stored refresh token and stamps the
	// session's last activity. Called on every token refresh so an active
	// client never looks idle.
	RotateSessionToken(ctx context.Context, oldToken, newToken string) error

	// FindIdleSessions returns sessions with no activity inside the idle
	// window, so their refresh tokens can be revoked alongside the session.
	FindIdleSessions(ctx context.Context, idleTimeout time.Duration) ([]*UserSession, error)
}

// EmailVerificationRepository defines the contract for verification tokens
type EmailVerificationRepository interface {
	SaveVerificationToken(ctx context.Context, token EmailVerificationToken) error
	FindVerificationToken(ctx context.Context, tokenValue string) (*EmailVerificationToken, error)
	ConsumeVerificationToken(ctx context.Context, tokenValue string) error
	CleanExpiredVerificationTokens(ctx context.Context) error
}

// TokenService defines the contract for JWT token management
type TokenService interface {
	GenerateAccessToken(userID kernel.UserID, companyID kernel.CompanyID, claims map[string]any) (string, error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	GenerateRefreshToken(userID kernel.UserID) (string, error)
}

// AuditService defines the contract for authentication audit logging
type AuditService interface {
	LogLoginAttempt(ctx context.Context, userID kernel.UserID, companyID kernel.CompanyID, method string, success bool, ip string, userAgent string)
	LogLogout(ctx context.Context, userID kernel.UserID, companyID kernel.CompanyID, ip string)
	LogTokenRefresh(ctx context.Context, userID kernel.UserID, companyID kernel.CompanyID, ip string)
	LogAccountCreated(ctx context.Context, userID kernel.UserID, companyID kernel.CompanyID, method string, ip string)
	LogEmailVerified(ctx context.Context, userID kernel.UserID, email string, ip string)
}

// StateManager stores short-lived OAuth CSRF state tokens.
type StateManager interface {
	// Store persists the state with its redirect target.
	Store(ctx context.Context, state string, redirectURI string) error

	// Consume retrieves and deletes the state. A state can be consumed once.
	Consume(ctx context.Context, state string) (redirectURI string, err error)
}
