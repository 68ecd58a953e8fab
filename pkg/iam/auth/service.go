package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/iam/identity"
	"github.com/hirecopilot/relay/pkg/iam/user"
	"github.com/hirecopilot/relay/pkg/iam/user/usersrv"
	"github.com/hirecopilot/relay/pkg/kernel"
	"github.com/hirecopilot/relay/pkg/logx"
)

// VerificationTokenTTL is the lifetime of an email-verification link.
const VerificationTokenTTL = 24 * time.Hour

// SignupRequest registers a new self-service account.
type SignupRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest authenticates an existing account.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// Filled by the transport layer, not the client body.
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// TokenPair is the result of a successful authentication.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LoginResult bundles tokens with the authenticated user.
type LoginResult struct {
	Tokens TokenPair    `json:"tokens"`
	User   user.UserDTO `json:"user"`
}

// VerificationMailer delivers the email-verification link. Implemented by the
// jobx-backed mailer so sends survive process restarts.
type VerificationMailer interface {
	SendVerification(ctx context.Context, token EmailVerificationToken, displayName string) error
}

// AuthService owns the password authentication flows: signup, login, token
// refresh, logout and email verification. OAuth sign-in lives in OAuthHandlers
// and converges with these flows at the session bootstrap.
type AuthService struct {
	accountRepo      identity.AccountRepository
	passwords        identity.PasswordService
	userService      *usersrv.UserService
	tokenService     TokenService
	tokenRepo        TokenRepository
	sessionRepo      SessionRepository
	verificationRepo EmailVerificationRepository
	audit            AuditService
	verifier         VerificationMailer
	accessTTL        time.Duration
	sessionTTL       time.Duration
	refreshTTL       time.Duration
}

func NewAuthService(
	accountRepo identity.AccountRepository,
	passwords identity.PasswordService,
	userService *usersrv.UserService,
	tokenService TokenService,
	tokenRepo TokenRepository,
	sessionRepo SessionRepository,
	verificationRepo EmailVerificationRepository,
	audit AuditService,
	verifier VerificationMailer,
	accessTTL time.Duration,
	sessionTTL time.Duration,
	refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		accountRepo:      accountRepo,
		passwords:        passwords,
		userService:      userService,
		tokenService:     tokenService,
		tokenRepo:        tokenRepo,
		sessionRepo:      sessionRepo,
		verificationRepo: verificationRepo,
		audit:            audit,
		verifier:         verifier,
		accessTTL:        accessTTL,
		sessionTTL:       sessionTTL,
		refreshTTL:       refreshTTL,
	}
}

// Signup creates a password account and queues the verification email. The
// user record is not created here: the session bootstrap on first login owns
// that, so the signup and OAuth paths converge on one code path.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*identity.Account, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" {
		return nil, errx.Validation("email is required")
	}

	if err := identity.ValidatePassword(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := identity.Account{
		ID:            kernel.NewUserID(uuid.NewString()),
		Email:         req.Email,
		PasswordHash:  hash,
		AuthMethod:    identity.AuthMethodPassword,
		DisplayName:   req.FullName,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	s.audit.LogAccountCreated(ctx, account.ID, kernel.PendingCompanyID, string(identity.AuthMethodPassword), "")

	if err := s.IssueVerification(ctx, &account); err != nil {
		// Account creation stands; the client can request a fresh link.
		logx.WithError(err).WithField("user_id", account.ID).
			Warn("failed to queue verification email")
	}

	return &account, nil
}

// Login authenticates a password account and runs the session bootstrap.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	account, err := s.accountRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		// Indistinguishable from a bad password on purpose.
		return nil, identity.ErrBadCredentials()
	}

	if !account.CanAuthenticate() {
		s.audit.LogLoginAttempt(ctx, account.ID, kernel.PendingCompanyID, string(account.AuthMethod), false, req.IP, req.UserAgent)
		return nil, identity.ErrAccountDisabled()
	}

	if account.AuthMethod != identity.AuthMethodPassword || !s.passwords.Verify(account.PasswordHash, req.Password) {
		s.audit.LogLoginAttempt(ctx, account.ID, kernel.PendingCompanyID, string(account.AuthMethod), false, req.IP, req.UserAgent)
		return nil, identity.ErrBadCredentials()
	}

	return s.establishSession(ctx, account, req.IP, req.UserAgent)
}

// EstablishSession runs the post-authentication path shared by password and
// OAuth sign-ins: session bootstrap, token issuance, session persistence.
func (s *AuthService) EstablishSession(ctx context.Context, account *identity.Account, ip, userAgent string) (*LoginResult, error) {
	return s.establishSession(ctx, account, ip, userAgent)
}

func (s *AuthService) establishSession(ctx context.Context, account *identity.Account, ip, userAgent string) (*LoginResult, error) {
	u, err := s.userService.EnsureUser(ctx, account)
	if err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := UserSession{
		ID:           uuid.NewString(),
		UserID:       u.ID,
		CompanyID:    u.CompanyID,
		SessionToken: tokens.RefreshToken,
		IPAddress:    ip,
		UserAgent:    userAgent,
		ExpiresAt:    now.Add(s.sessionTTL),
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := s.sessionRepo.SaveSession(ctx, session); err != nil {
		logx.WithError(err).WithField("user_id", u.ID).Warn("failed to persist session")
	}

	s.audit.LogLoginAttempt(ctx, u.ID, u.CompanyID, string(account.AuthMethod), true, ip, userAgent)

	return &LoginResult{
		Tokens: *tokens,
		User:   u.ToDTO(),
	}, nil
}

// Refresh rotates a refresh token and mints a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, ip string) (*TokenPair, error) {
	stored, err := s.tokenRepo.FindRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken()
	}

	if stored.IsRevoked {
		// Reuse of a revoked token means the token leaked; kill everything.
		if revokeErr := s.tokenRepo.RevokeAllUserTokens(ctx, stored.UserID); revokeErr != nil {
			logx.WithError(revokeErr).WithField("user_id", stored.UserID).
				Error("failed to revoke user tokens after refresh reuse")
		}
		return nil, ErrInvalidRefreshToken()
	}

	if stored.IsExpired() {
		return nil, ErrExpiredRefreshToken()
	}

	u, err := s.userService.GetUser(ctx, stored.UserID)
	if err != nil {
		return nil, ErrInvalidRefreshToken()
	}

	if err := s.tokenRepo.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return nil, errx.Wrap(err, "failed to rotate refresh token", errx.TypeInternal)
	}

	tokens, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	// Point the session at the rotated token and stamp activity, otherwise a
	// client refreshing every day would look idle to the cleanup sweep.
	if err := s.sessionRepo.RotateSessionToken(ctx, refreshToken, tokens.RefreshToken); err != nil {
		logx.WithError(err).WithField("user_id", u.ID).Warn("failed to rotate session token")
	}

	s.audit.LogTokenRefresh(ctx, u.ID, u.CompanyID, ip)
	return tokens, nil
}

// Logout revokes the refresh token and all sessions of the user.
func (s *AuthService) Logout(ctx context.Context, userID kernel.UserID, refreshToken, ip string) error {
	if refreshToken != "" {
		if err := s.tokenRepo.RevokeRefreshToken(ctx, refreshToken); err != nil {
			logx.WithError(err).WithField("user_id", userID).Warn("failed to revoke refresh token on logout")
		}
	}

	if err := s.sessionRepo.RevokeAllUserSessions(ctx, userID); err != nil {
		logx.WithError(err).WithField("user_id", userID).Warn("failed to revoke sessions on logout")
	}

	s.audit.LogLogout(ctx, userID, kernel.PendingCompanyID, ip)
	return nil
}

// IssueVerification creates a fresh verification token and hands it to the
// mailer. Safe to call repeatedly; each call issues a new token.
func (s *AuthService) IssueVerification(ctx context.Context, account *identity.Account) error {
	if account.EmailVerified {
		return nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return errx.Wrap(err, "failed to generate verification token", errx.TypeInternal)
	}

	now := time.Now().UTC()
	token := EmailVerificationToken{
		ID:        uuid.NewString(),
		Token:     hex.EncodeToString(raw),
		UserID:    account.ID,
		Email:     account.Email,
		ExpiresAt: now.Add(VerificationTokenTTL),
		CreatedAt: now,
	}

	if err := s.verificationRepo.SaveVerificationToken(ctx, token); err != nil {
		return err
	}

	if s.verifier == nil {
		return nil
	}
	return s.verifier.SendVerification(ctx, token, account.DisplayName)
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenValue, ip string) error {
	token, err := s.verificationRepo.FindVerificationToken(ctx, tokenValue)
	if err != nil {
		return ErrInvalidVerificationToken()
	}
	if !token.IsValid() {
		return ErrInvalidVerificationToken()
	}

	account, err := s.accountRepo.FindByID(ctx, token.UserID)
	if err != nil {
		return err
	}

	if err := s.verificationRepo.ConsumeVerificationToken(ctx, tokenValue); err != nil {
		return err
	}

	account.MarkEmailVerified()
	if err := s.accountRepo.Save(ctx, *account); err != nil {
		return err
	}

	s.audit.LogEmailVerified(ctx, account.ID, account.Email, ip)
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, u *user.User) (*TokenPair, error) {
	claims := map[string]any{
		"email": u.Email,
		"name":  u.FullName,
		"role":  string(u.Role),
	}

	accessToken, err := s.tokenService.GenerateAccessToken(u.ID, u.CompanyID, claims)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := RefreshToken{
		ID:        uuid.NewString(),
		Token:     refreshToken,
		UserID:    u.ID,
		CompanyID: u.CompanyID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.tokenRepo.SaveRefreshToken(ctx, record); err != nil {
		return nil, errx.Wrap(err, "failed to persist refresh token", errx.TypeInternal)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL / time.Second),
	}, nil
}
