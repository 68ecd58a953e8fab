package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/hirecopilot/relay/pkg/config"
	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/iam/identity"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

// OAuthUserInfo is the identity returned by a provider after authorization.
type OAuthUserInfo struct {
	Email         string
	Name          string
	EmailVerified bool
}

// OAuthService drives the authorization-code flow for a single provider.
type OAuthService interface {
	// AuthURL builds the provider consent URL carrying the CSRF state.
	AuthURL(state string) string

	// Exchange trades the authorization code for the provider identity.
	Exchange(ctx context.Context, code string) (*OAuthUserInfo, error)

	// AuthMethod is the identity linkage recorded on accounts created
	// through this provider.
	AuthMethod() identity.AuthMethod
}

// NewState generates a random OAuth state token.
func NewState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", errx.Wrap(err, "failed to generate oauth state", errx.TypeInternal)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ============================================================================
// In-memory state manager
// ============================================================================

// InMemoryStateManager keeps OAuth states in process memory. Fine for a
// single instance; multi-instance deployments need the Redis manager.
type InMemoryStateManager struct {
	mu     sync.Mutex
	states map[string]stateEntry
	ttl    time.Duration
}

type stateEntry struct {
	redirectURI string
	expiresAt   time.Time
}

func NewInMemoryStateManager(ttl time.Duration) *InMemoryStateManager {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &InMemoryStateManager{
		states: make(map[string]stateEntry),
		ttl:    ttl,
	}
}

func (m *InMemoryStateManager) Store(_ context.Context, state string, redirectURI string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Opportunistic sweep keeps the map from growing unbounded.
	now := time.Now()
	for k, v := range m.states {
		if now.After(v.expiresAt) {
			delete(m.states, k)
		}
	}

	m.states[state] = stateEntry{
		redirectURI: redirectURI,
		expiresAt:   now.Add(m.ttl),
	}
	return nil
}

func (m *InMemoryStateManager) Consume(_ context.Context, state string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.states[state]
	if !ok {
		return "", ErrInvalidState()
	}
	delete(m.states, state)

	if time.Now().After(entry.expiresAt) {
		return "", ErrInvalidState()
	}
	return entry.redirectURI, nil
}

// ============================================================================
// Google
// ============================================================================

type googleOAuthService struct {
	cfg *oauth2.Config
}

// NewGoogleOAuthServiceFromConfig builds the Google sign-in service.
func NewGoogleOAuthServiceFromConfig(cfg *config.OAuthProviderConfig) OAuthService {
	return &googleOAuthService{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

func (g *googleOAuthService) AuthURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *googleOAuthService) Exchange(ctx context.Context, code string) (*OAuthUserInfo, error) {
	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, ErrOAuthAuthorizationFailed().WithDetail("error", err.Error())
	}
	return fetchUserInfo(ctx, g.cfg.Client(ctx, token), "https://openidconnect.googleapis.com/v1/userinfo")
}

func (g *googleOAuthService) AuthMethod() identity.AuthMethod {
	return identity.AuthMethodGoogle
}

// ============================================================================
// Microsoft
// ============================================================================

type microsoftOAuthService struct {
	cfg *oauth2.Config
}

// NewMicrosoftOAuthServiceFromConfig builds the Microsoft sign-in service.
func NewMicrosoftOAuthServiceFromConfig(cfg *config.OAuthProviderConfig) OAuthService {
	return &microsoftOAuthService{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile", "User.Read"},
			Endpoint:     microsoft.AzureADEndpoint("common"),
		},
	}
}

func (m *microsoftOAuthService) AuthURL(state string) string {
	return m.cfg.AuthCodeURL(state)
}

func (m *microsoftOAuthService) Exchange(ctx context.Context, code string) (*OAuthUserInfo, error) {
	token, err := m.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, ErrOAuthAuthorizationFailed().WithDetail("error", err.Error())
	}

	client := m.cfg.Client(ctx, token)
	resp, err := client.Get("https://graph.microsoft.com/v1.0/me")
	if err != nil {
		return nil, ErrOAuthAuthorizationFailed().WithDetail("error", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrOAuthAuthorizationFailed().WithDetail("status", resp.Status)
	}

	var payload struct {
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, ErrOAuthAuthorizationFailed().WithDetail("error", err.Error())
	}

	email := payload.Mail
	if email == "" {
		email = payload.UserPrincipalName
	}

	return &OAuthUserInfo{
		Email: email,
		Name:  payload.DisplayName,
		// Microsoft accounts reached through Graph are verified addresses.
		EmailVerified: true,
	}, nil
}

func (m *microsoftOAuthService) AuthMethod() identity.AuthMethod {
	return identity.AuthMethodMicrosoft
}

// ============================================================================
// Shared
// ============================================================================

func fetchUserInfo(_ context.Context, client *http.Client, url string) (*OAuthUserInfo, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, ErrOAuthAuthorizationFailed().WithDetail("error", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrOAuthAuthorizationFailed().WithDetail("status", resp.Status)
	}

	var payload struct {
		Email         string `json:"email"`
		Name          string `json:"name"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, ErrOAuthAuthorizationFailed().WithDetail("error", err.Error())
	}

	return &OAuthUserInfo{
		Email:         payload.Email,
		Name:          payload.Name,
		EmailVerified: payload.EmailVerified,
	}, nil
}
