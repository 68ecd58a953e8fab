package config

import "time"

// AuthConfig groups authentication-related configuration.
type AuthConfig struct {
	JWT      JWTConfig
	Password PasswordConfig
	Session  SessionConfig
	OAuth    OAuthConfig
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWT:      loadJWTConfig(),
		Password: loadPasswordConfig(),
		Session:  loadSessionConfig(),
		OAuth:    loadOAuthConfig(),
	}
}

// JWTConfig configures access/refresh token generation.
type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

func loadJWTConfig() JWTConfig {
	return JWTConfig{
		Secret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		Issuer:          getEnv("JWT_ISSUER", "hirecopilot"),
	}
}

// PasswordConfig configures password hashing.
type PasswordConfig struct {
	BcryptCost int
}

func loadPasswordConfig() PasswordConfig {
	return PasswordConfig{
		BcryptCost: getEnvInt("BCRYPT_COST", 12),
	}
}

// SessionConfig configures server-side session handling and auto-logout.
type SessionConfig struct {
	TTL             time.Duration
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		TTL:             getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		IdleTimeout:     getEnvDuration("SESSION_IDLE_TIMEOUT", time.Hour),
		CleanupInterval: getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour),
	}
}

// OAuthConfig configures external OAuth sign-in providers.
type OAuthConfig struct {
	Google       OAuthProviderConfig
	Microsoft    OAuthProviderConfig
	StateManager StateManagerConfig
}

// OAuthProviderConfig configures a single OAuth provider.
type OAuthProviderConfig struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// StateManagerConfig selects where OAuth CSRF state tokens are kept.
type StateManagerConfig struct {
	Type string // "memory" or "redis"
	TTL  time.Duration
}

func loadOAuthConfig() OAuthConfig {
	return OAuthConfig{
		Google: OAuthProviderConfig{
			Enabled:      getEnvBool("OAUTH_GOOGLE_ENABLED", false),
			ClientID:     getEnv("OAUTH_GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("OAUTH_GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("OAUTH_GOOGLE_REDIRECT_URL", ""),
		},
		Microsoft: OAuthProviderConfig{
			Enabled:      getEnvBool("OAUTH_MICROSOFT_ENABLED", false),
			ClientID:     getEnv("OAUTH_MICROSOFT_CLIENT_ID", ""),
			ClientSecret: getEnv("OAUTH_MICROSOFT_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("OAUTH_MICROSOFT_REDIRECT_URL", ""),
		},
		StateManager: StateManagerConfig{
			Type: getEnv("OAUTH_STATE_MANAGER", "memory"),
			TTL:  getEnvDuration("OAUTH_STATE_TTL", 10*time.Minute),
		},
	}
}

// InvitationConfig configures the invite-based provisioning flow.
type InvitationConfig struct {
	TTL     time.Duration
	BaseURL string
}

func loadInvitationConfig() InvitationConfig {
	return InvitationConfig{
		// Fixed 24-hour redemption window. Not configurable per call.
		TTL:     getEnvDuration("INVITATION_TTL", 24*time.Hour),
		BaseURL: getEnv("INVITATION_BASE_URL", "https://hirecopilot.me"),
	}
}
