package iamcontainer

import (
	"context"

	"github.com/hirecopilot/relay/pkg/config"
	"github.com/hirecopilot/relay/pkg/fsx"
	"github.com/hirecopilot/relay/pkg/iam"
	"github.com/hirecopilot/relay/pkg/iam/auth"
	"github.com/hirecopilot/relay/pkg/iam/auth/authinfra"
	"github.com/hirecopilot/relay/pkg/iam/company/companyapi"
	"github.com/hirecopilot/relay/pkg/iam/company/companyinfra"
	"github.com/hirecopilot/relay/pkg/iam/company/companysrv"
	"github.com/hirecopilot/relay/pkg/iam/identity/identityinfra"
	"github.com/hirecopilot/relay/pkg/iam/invitation/invitationapi"
	"github.com/hirecopilot/relay/pkg/iam/invitation/invitationinfra"
	"github.com/hirecopilot/relay/pkg/iam/invitation/invitationsrv"
	"github.com/hirecopilot/relay/pkg/iam/user/userapi"
	"github.com/hirecopilot/relay/pkg/iam/user/userinfra"
	"github.com/hirecopilot/relay/pkg/iam/user/usersrv"
	"github.com/hirecopilot/relay/pkg/jobx"
	"github.com/hirecopilot/relay/pkg/logx"
	"github.com/hirecopilot/relay/pkg/notifx"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// No hidden globals, no ambient state — everything comes through here.
// ---------------------------------------------------------------------------

type Deps struct {
	DB    *sqlx.DB
	Redis *redis.Client
	Cfg   *config.Config

	// Mailer and Jobs are cross-cutting infrastructure owned by cmd/ so other
	// bounded contexts can share them.
	Mailer *notifx.Client
	Jobs   *jobx.Client

	// Files stores company logos (local disk or S3 depending on config).
	Files fsx.FileSystem
}

// ---------------------------------------------------------------------------
// Container: the public surface of the IAM module.
// Only expose what other modules or cmd/ actually need.
// Internal repos, infra details, etc. stay private.
// ---------------------------------------------------------------------------

type Container struct {
	// Services — available for cross-module consumption
	UserService       *usersrv.UserService
	CompanyService    *companysrv.CompanyService
	InvitationService *invitationsrv.InvitationService
	AuthService       *auth.AuthService
	TokenService      auth.TokenService

	// Handlers — needed by cmd/ to register routes
	AuthHandlers       *auth.AuthHandlers
	UserHandlers       *userapi.UserHandlers
	CompanyHandlers    *companyapi.CompanyHandlers
	InvitationHandlers *invitationapi.InvitationHandlers

	// Middleware — needed by cmd/ to protect route groups
	AuthMiddleware *auth.TokenMiddleware

	// Background services
	CleanupService *authinfra.CleanupService

	cfg *config.Config
}

// ---------------------------------------------------------------------------
// New: constructs the entire IAM dependency graph.
// Order matters: infra → repos → services → handlers → middleware.
// ---------------------------------------------------------------------------

func New(deps Deps) *Container {
	logx.Info("🔧 Initializing IAM container...")

	c := &Container{cfg: deps.Cfg}

	// ── Repositories ─────────────────────────────────────────────────────

	accountRepo := identityinfra.NewPostgresAccountRepository(deps.DB)
	userRepo := userinfra.NewPostgresUserRepository(deps.DB)
	companyRepo := companyinfra.NewPostgresCompanyRepository(deps.DB)
	invitationRepo := invitationinfra.NewPostgresInvitationRepository(deps.DB)
	tokenRepo := authinfra.NewPostgresTokenRepository(deps.DB)
	sessionRepo := authinfra.NewPostgresSessionRepository(deps.DB)
	verificationRepo := authinfra.NewPostgresVerificationRepository(deps.DB)

	// ── Infrastructure services ──────────────────────────────────────────

	var stateManager auth.StateManager
	if deps.Cfg.Auth.OAuth.StateManager.Type == "redis" {
		stateManager = authinfra.NewRedisStateManager(deps.Redis, deps.Cfg.Auth.OAuth.StateManager.TTL)
		logx.Info("  ✅ Using Redis state manager for OAuth")
	} else {
		stateManager = auth.NewInMemoryStateManager(deps.Cfg.Auth.OAuth.StateManager.TTL)
		logx.Warn("  ⚠️  Using in-memory state manager (not recommended for production)")
	}

	passwordSvc := identityinfra.NewBcryptPasswordService(deps.Cfg.Auth.Password.BcryptCost)

	c.TokenService = auth.NewJWTServiceFromConfig(&deps.Cfg.Auth.JWT)

	verificationMailer := authinfra.NewJobxVerificationMailer(
		deps.Jobs,
		deps.Mailer,
		deps.Cfg.Invitation.BaseURL,
		deps.Cfg.Notifx.FromAddress,
	)
	verificationMailer.RegisterJobs(deps.Jobs)

	auditService := authinfra.NewLogxAuditService()

	// ── Domain services ──────────────────────────────────────────────────

	c.UserService = usersrv.NewUserService(userRepo, accountRepo)

	c.CompanyService = companysrv.NewCompanyService(
		companyRepo,
		userRepo,
		deps.Files,
		deps.Cfg.Storage.PublicURL,
	)

	c.InvitationService = invitationsrv.NewInvitationService(
		invitationRepo,
		userRepo,
		accountRepo,
		companyRepo,
		passwordSvc,
		deps.Mailer,
		invitationsrv.Config{
			TTL:         deps.Cfg.Invitation.TTL,
			BaseURL:     deps.Cfg.Invitation.BaseURL,
			FromAddress: deps.Cfg.Notifx.FromAddress,
		},
	)
	invitationsrv.RegisterJobs(deps.Jobs, c.InvitationService, deps.Cfg.Invitation.TTL)

	c.AuthService = auth.NewAuthService(
		accountRepo,
		passwordSvc,
		c.UserService,
		c.TokenService,
		tokenRepo,
		sessionRepo,
		verificationRepo,
		auditService,
		verificationMailer,
		deps.Cfg.Auth.JWT.AccessTokenTTL,
		deps.Cfg.Auth.Session.TTL,
		deps.Cfg.Auth.JWT.RefreshTokenTTL,
	)

	// ── OAuth providers ──────────────────────────────────────────────────

	oauthServices := make(map[iam.OAuthProvider]auth.OAuthService)

	if deps.Cfg.Auth.OAuth.Google.Enabled {
		oauthServices[iam.OAuthProviderGoogle] = auth.NewGoogleOAuthServiceFromConfig(&deps.Cfg.Auth.OAuth.Google)
		logx.Info("  ✅ Google OAuth enabled")
	}

	if deps.Cfg.Auth.OAuth.Microsoft.Enabled {
		oauthServices[iam.OAuthProviderMicrosoft] = auth.NewMicrosoftOAuthServiceFromConfig(&deps.Cfg.Auth.OAuth.Microsoft)
		logx.Info("  ✅ Microsoft OAuth enabled")
	}

	// ── Handlers ─────────────────────────────────────────────────────────

	c.AuthHandlers = auth.NewAuthHandlers(
		c.AuthService,
		c.UserService,
		accountRepo,
		oauthServices,
		stateManager,
		!deps.Cfg.Server.Debug,
		deps.Cfg.Auth.JWT.AccessTokenTTL,
		deps.Cfg.Auth.JWT.RefreshTokenTTL,
	)

	c.UserHandlers = userapi.NewUserHandlers(c.UserService)
	c.CompanyHandlers = companyapi.NewCompanyHandlers(c.CompanyService)
	c.InvitationHandlers = invitationapi.NewInvitationHandlers(c.InvitationService)

	// ── Middleware ────────────────────────────────────────────────────────

	c.AuthMiddleware = auth.NewAuthMiddleware(c.TokenService)

	// ── Background services ──────────────────────────────────────────────

	c.CleanupService = authinfra.NewCleanupService(
		tokenRepo,
		sessionRepo,
		verificationRepo,
		deps.Cfg.Auth.Session.CleanupInterval,
		deps.Cfg.Auth.Session.IdleTimeout,
	)

	logx.Info("✅ IAM container initialized")
	return c
}

// StartBackgroundServices starts IAM-specific background workers.
func (c *Container) StartBackgroundServices(ctx context.Context, jobs *jobx.Client) {
	go c.CleanupService.Start(ctx)
	logx.Info("  ✅ IAM cleanup service started")

	if err := invitationsrv.ScheduleExpirySweep(ctx, jobs, c.cfg.Invitation.TTL); err != nil {
		logx.WithError(err).Warn("failed to seed invitation expiry sweep")
	} else {
		logx.Info("  ✅ Invitation expiry sweep scheduled")
	}
}
