package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hirecopilot/relay/pkg/iam"
	"github.com/hirecopilot/relay/pkg/iam/identity"
	"github.com/hirecopilot/relay/pkg/iam/user/usersrv"
	"github.com/hirecopilot/relay/pkg/kernel"
	"github.com/hirecopilot/relay/pkg/logx"
)

// AuthHandlers exposes the authentication HTTP surface.
type AuthHandlers struct {
	authService   *AuthService
	userService   *usersrv.UserService
	accountRepo   identity.AccountRepository
	oauthServices map[iam.OAuthProvider]OAuthService
	stateManager  StateManager
	cookieSecure  bool
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthHandlers(
	authService *AuthService,
	userService *usersrv.UserService,
	accountRepo identity.AccountRepository,
	oauthServices map[iam.OAuthProvider]OAuthService,
	stateManager StateManager,
	cookieSecure bool,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) *AuthHandlers {
	return &AuthHandlers{
		authService:   authService,
		userService:   userService,
		accountRepo:   accountRepo,
		oauthServices: oauthServices,
		stateManager:  stateManager,
		cookieSecure:  cookieSecure,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// RegisterRoutes mounts the public authentication routes.
func (h *AuthHandlers) RegisterRoutes(app *fiber.App, authMW *TokenMiddleware) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", h.Signup)
	authGroup.Post("/login", h.Login)
	authGroup.Post("/refresh", h.Refresh)
	authGroup.Get("/verify-email", h.VerifyEmail)
	authGroup.Post("/resend-verification", h.ResendVerification)

	authGroup.Get("/oauth/:provider", h.OAuthBegin)
	authGroup.Get("/oauth/:provider/callback", h.OAuthCallback)

	authGroup.Post("/logout", authMW.Authenticate(), h.Logout)
	authGroup.Get("/me", authMW.Authenticate(), h.Me)
}

// Signup handles POST /auth/signup
func (h *AuthHandlers) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	account, err := h.authService.Signup(c.Context(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":             account.ID,
		"email":          account.Email,
		"email_verified": account.EmailVerified,
		"message":        "account created, check your inbox to verify your email",
	})
}

// Login handles POST /auth/login
func (h *AuthHandlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	req.IP = c.IP()
	req.UserAgent = c.Get("User-Agent")

	result, err := h.authService.Login(c.Context(), req)
	if err != nil {
		return err
	}

	h.setAuthCookies(c, result.Tokens)
	return c.JSON(result)
}

// Refresh handles POST /auth/refresh
func (h *AuthHandlers) Refresh(c *fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.BodyParser(&body)

	token := body.RefreshToken
	if token == "" {
		token = c.Cookies("refresh_token")
	}
	if token == "" {
		return ErrInvalidRefreshToken()
	}

	tokens, err := h.authService.Refresh(c.Context(), token, c.IP())
	if err != nil {
		return err
	}

	h.setAuthCookies(c, *tokens)
	return c.JSON(tokens)
}

// Logout handles POST /auth/logout
func (h *AuthHandlers) Logout(c *fiber.Ctx) error {
	authContext := FromFiber(c)
	if authContext == nil {
		return iam.ErrUnauthorized()
	}

	refreshToken := c.Cookies("refresh_token")
	if err := h.authService.Logout(c.Context(), authContext.UserID, refreshToken, c.IP()); err != nil {
		return err
	}

	h.clearAuthCookies(c)
	return c.JSON(fiber.Map{"message": "logged out"})
}

// Me handles GET /auth/me
func (h *AuthHandlers) Me(c *fiber.Ctx) error {
	authContext := FromFiber(c)
	if authContext == nil {
		return iam.ErrUnauthorized()
	}

	u, err := h.userService.GetUser(c.Context(), authContext.UserID)
	if err != nil {
		return err
	}

	dto := u.ToDTO()
	return c.JSON(fiber.Map{
		"user": dto,
		// The front end routes fresh administrators into onboarding when the
		// company is still the pending sentinel.
		"needs_onboarding": u.IsAdministrator() && u.CompanyID.IsPending(),
	})
}

// VerifyEmail handles GET /auth/verify-email?token=...
func (h *AuthHandlers) VerifyEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return ErrInvalidVerificationToken()
	}

	if err := h.authService.VerifyEmail(c.Context(), token, c.IP()); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "email verified"})
}

// ResendVerification handles POST /auth/resend-verification
func (h *AuthHandlers) ResendVerification(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&body); err != nil || body.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "email is required"})
	}

	account, err := h.accountRepo.FindByEmail(c.Context(), body.Email)
	if err != nil {
		// Do not leak which addresses have accounts.
		return c.JSON(fiber.Map{"message": "if the address exists, a new link is on its way"})
	}

	if err := h.authService.IssueVerification(c.Context(), account); err != nil {
		logx.WithError(err).WithField("user_id", account.ID).Warn("failed to resend verification email")
	}

	return c.JSON(fiber.Map{"message": "if the address exists, a new link is on its way"})
}

// OAuthBegin handles GET /auth/oauth/:provider
func (h *AuthHandlers) OAuthBegin(c *fiber.Ctx) error {
	svc, err := h.provider(c.Params("provider"))
	if err != nil {
		return err
	}

	state, err := NewState()
	if err != nil {
		return err
	}

	redirectURI := c.Query("redirect_uri", "/")
	if err := h.stateManager.Store(c.Context(), state, redirectURI); err != nil {
		return err
	}

	return c.Redirect(svc.AuthURL(state), fiber.StatusTemporaryRedirect)
}

// OAuthCallback handles GET /auth/oauth/:provider/callback
func (h *AuthHandlers) OAuthCallback(c *fiber.Ctx) error {
	svc, err := h.provider(c.Params("provider"))
	if err != nil {
		return err
	}

	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		return ErrInvalidState()
	}

	redirectURI, err := h.stateManager.Consume(c.Context(), state)
	if err != nil {
		return err
	}

	info, err := svc.Exchange(c.Context(), code)
	if err != nil {
		return err
	}

	account, err := h.findOrCreateOAuthAccount(c, info, svc.AuthMethod())
	if err != nil {
		return err
	}

	result, err := h.authService.EstablishSession(c.Context(), account, c.IP(), c.Get("User-Agent"))
	if err != nil {
		return err
	}

	h.setAuthCookies(c, result.Tokens)
	return c.Redirect(redirectURI, fiber.StatusTemporaryRedirect)
}

func (h *AuthHandlers) findOrCreateOAuthAccount(c *fiber.Ctx, info *OAuthUserInfo, method identity.AuthMethod) (*identity.Account, error) {
	ctx := c.Context()

	existing, err := h.accountRepo.FindByEmail(ctx, info.Email)
	if err == nil {
		if !existing.CanAuthenticate() {
			return nil, identity.ErrAccountDisabled()
		}
		return existing, nil
	}

	now := time.Now().UTC()
	account := identity.Account{
		ID:          kernel.NewUserID(uuid.NewString()),
		Email:       info.Email,
		AuthMethod:  method,
		DisplayName: info.Name,
		// The provider vouches for the address.
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return &account, nil
}

func (h *AuthHandlers) provider(name string) (OAuthService, error) {
	var key iam.OAuthProvider
	switch name {
	case "google":
		key = iam.OAuthProviderGoogle
	case "microsoft":
		key = iam.OAuthProviderMicrosoft
	default:
		return nil, ErrInvalidOAuthProvider().WithDetail("provider", name)
	}

	svc, ok := h.oauthServices[key]
	if !ok {
		return nil, ErrInvalidOAuthProvider().WithDetail("provider", name)
	}
	return svc, nil
}

func (h *AuthHandlers) setAuthCookies(c *fiber.Ctx, tokens TokenPair) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    tokens.AccessToken,
		Expires:  time.Now().Add(h.accessTTL),
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: "Lax",
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    tokens.RefreshToken,
		Expires:  time.Now().Add(h.refreshTTL),
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: "Lax",
		Path:     "/auth",
	})
}

func (h *AuthHandlers) clearAuthCookies(c *fiber.Ctx) {
	expired := time.Now().Add(-time.Hour)
	c.Cookie(&fiber.Cookie{Name: "access_token", Value: "", Expires: expired, HTTPOnly: true, Path: "/"})
	c.Cookie(&fiber.Cookie{Name: "refresh_token", Value: "", Expires: expired, HTTPOnly: true, Path: "/auth"})
}
