package auth

import (
	"net/http"
	"time"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/kernel"
)

// ============================================================================
// Token Types
// ============================================================================

// RefreshToken represents a long-lived credential used to mint new access
// tokens.
type RefreshToken struct {
	ID        string           `db:"id" json:"id"`
	Token     string           `db:"token" json:"token"`
	UserID    kernel.UserID    `db:"user_id" json:"user_id"`
	CompanyID kernel.CompanyID `db:"company_id" json:"company_id"`
	ExpiresAt time.Time        `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	IsRevoked bool             `db:"is_revoked" json:"is_revoked"`
}

// UserSession represents a server-side session. Sessions idle longer than the
// configured timeout are revoked by the cleanup service, which is what the
// client experiences as auto-logout.
type UserSession struct {
	ID           string           `db:"id" json:"id"`
	UserID       kernel.UserID    `db:"user_id" json:"user_id"`
	CompanyID    kernel.CompanyID `db:"company_id" json:"company_id"`
	SessionToken string           `db:"session_token" json:"session_token"`
	IPAddress    string           `db:"ip_address" json:"ip_address"`
	UserAgent    string           `db:"user_agent" json:"user_agent"`
	ExpiresAt    time.Time        `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	LastActivity time.Time        `db:"last_activity" json:"last_activity"`
}

// EmailVerificationToken represents a pending email-address verification.
type EmailVerificationToken struct {
	ID        string        `db:"id" json:"id"`
	Token     string        `db:"token" json:"token"`
	UserID    kernel.UserID `db:"user_id" json:"user_id"`
	Email     string        `db:"email" json:"email"`
	ExpiresAt time.Time     `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	IsUsed    bool          `db:"is_used" json:"is_used"`
}

// TokenClaims represents verified JWT claims.
type TokenClaims struct {
	UserID    kernel.UserID    `json:"user_id"`
	CompanyID kernel.CompanyID `json:"company_id"`
	Email     string           `json:"email"`
	Name      string           `json:"name"`
	Role      string           `json:"role"`
	IssuedAt  time.Time        `json:"iat"`
	ExpiresAt time.Time        `json:"exp"`
}

// ============================================================================
// Domain Methods
// ============================================================================

// IsExpired checks if the refresh token has expired
func (r *RefreshToken) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}

// IsValid checks if the refresh token is valid
func (r *RefreshToken) IsValid() bool {
	return !r.IsRevoked && !r.IsExpired()
}

// IsExpired checks if the session has expired
func (s *UserSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsIdle reports whether the session has seen no activity for at least the
// given timeout.
func (s *UserSession) IsIdle(timeout time.Duration) bool {
	return time.Since(s.LastActivity) >= timeout
}

// UpdateActivity updates the session's last activity
func (s *UserSession) UpdateActivity() {
	s.LastActivity = time.Now()
}

// IsExpired checks if the verification token has expired
func (v *EmailVerificationToken) IsExpired() bool {
	return time.Now().After(v.ExpiresAt)
}

// IsValid checks if the verification token can still be consumed
func (v *EmailVerificationToken) IsValid() bool {
	return !v.IsUsed && !v.IsExpired()
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeInvalidRefreshToken      = ErrRegistry.Register("INVALID_REFRESH_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid refresh token")
	CodeExpiredRefreshToken      = ErrRegistry.Register("EXPIRED_REFRESH_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Expired refresh token")
	CodeInvalidOAuthProvider     = ErrRegistry.Register("INVALID_OAUTH_PROVIDER", errx.TypeValidation, http.StatusBadRequest, "Invalid OAuth provider")
	CodeOAuthAuthorizationFailed = ErrRegistry.Register("OAUTH_AUTHORIZATION_FAILED", errx.TypeExternal, http.StatusBadRequest, "OAuth authorization failed")
	CodeInvalidState             = ErrRegistry.Register("INVALID_STATE", errx.TypeValidation, http.StatusBadRequest, "Invalid OAuth state")
	CodeTokenGenerationFailed    = ErrRegistry.Register("TOKEN_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Token generation failed")
	CodeTokenValidationFailed    = ErrRegistry.Register("TOKEN_VALIDATION_FAILED", errx.TypeAuthorization, http.StatusUnauthorized, "Token validation failed")
	CodeInvalidVerificationToken = ErrRegistry.Register("INVALID_VERIFICATION_TOKEN", errx.TypeValidation, http.StatusBadRequest, "Invalid or expired verification token")
)

// Helper functions
func ErrInvalidRefreshToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidRefreshToken)
}

func ErrExpiredRefreshToken() *errx.Error {
	return ErrRegistry.New(CodeExpiredRefreshToken)
}

func ErrInvalidOAuthProvider() *errx.Error {
	return ErrRegistry.New(CodeInvalidOAuthProvider)
}

func ErrOAuthAuthorizationFailed() *errx.Error {
	return ErrRegistry.New(CodeOAuthAuthorizationFailed)
}

func ErrInvalidState() *errx.Error {
	return ErrRegistry.New(CodeInvalidState)
}

func ErrTokenGenerationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenGenerationFailed)
}

func ErrTokenValidationFailed() *errx.Error {
	return ErrRegistry.New(CodeTokenValidationFailed)
}

func ErrInvalidVerificationToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidVerificationToken)
}
