package identity

import (
	"net/http"
	"time"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/kernel"
)

// AuthMethod describes how an account authenticates.
type AuthMethod string

const (
	AuthMethodPassword  AuthMethod = "PASSWORD"
	AuthMethodGoogle    AuthMethod = "GOOGLE"
	AuthMethodMicrosoft AuthMethod = "MICROSOFT"
)

// Account is a credential-store record. It owns the authentication state for
// exactly one user: password hash (or OAuth linkage), email-verified flag and
// the disabled flag checked on every sign-in.
type Account struct {
	ID            kernel.UserID `db:"id" json:"id"`
	Email         string        `db:"email" json:"email"`
	PasswordHash  string        `db:"password_hash" json:"-"`
	AuthMethod    AuthMethod    `db:"auth_method" json:"auth_method"`
	DisplayName   string        `db:"display_name" json:"display_name"`
	EmailVerified bool          `db:"email_verified" json:"email_verified"`
	Disabled      bool          `db:"disabled" json:"disabled"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// CanAuthenticate reports whether the account is allowed to sign in at all.
// Disabled wins over everything else: a disabled account must fail
// authentication regardless of credentials.
func (a *Account) CanAuthenticate() bool {
	return !a.Disabled
}

// Disable marks the account as disabled. Subsequent authentication fails.
func (a *Account) Disable() {
	a.Disabled = true
	a.UpdatedAt = time.Now().UTC()
}

// MarkEmailVerified flips the verification flag.
func (a *Account) MarkEmailVerified() {
	a.EmailVerified = true
	a.UpdatedAt = time.Now().UTC()
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("IDENTITY")

var (
	CodeAccountNotFound  = ErrRegistry.Register("ACCOUNT_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Account not found")
	CodeEmailInUse       = ErrRegistry.Register("EMAIL_IN_USE", errx.TypeConflict, http.StatusConflict, "An account with this email already exists")
	CodeAccountDisabled  = ErrRegistry.Register("ACCOUNT_DISABLED", errx.TypeAuthorization, http.StatusForbidden, "Account is disabled")
	CodeBadCredentials   = ErrRegistry.Register("BAD_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid email or password")
	CodeWeakPassword     = ErrRegistry.Register("WEAK_PASSWORD", errx.TypeValidation, http.StatusBadRequest, "Password does not meet the strength policy")
	CodePasswordMismatch = ErrRegistry.Register("PASSWORD_MISMATCH", errx.TypeValidation, http.StatusBadRequest, "Passwords do not match")
)

func ErrAccountNotFound() *errx.Error  { return ErrRegistry.New(CodeAccountNotFound) }
func ErrEmailInUse() *errx.Error       { return ErrRegistry.New(CodeEmailInUse) }
func ErrAccountDisabled() *errx.Error  { return ErrRegistry.New(CodeAccountDisabled) }
func ErrBadCredentials() *errx.Error   { return ErrRegistry.New(CodeBadCredentials) }
func ErrWeakPassword() *errx.Error     { return ErrRegistry.New(CodeWeakPassword) }
func ErrPasswordMismatch() *errx.Error { return ErrRegistry.New(CodePasswordMismatch) }
