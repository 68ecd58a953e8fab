package authinfra_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hirecopilot/relay/pkg/iam/auth"
	"github.com/hirecopilot/relay/pkg/iam/auth/authinfra"
	"github.com/hirecopilot/relay/pkg/kernel"
)

// --- Fakes ---

type sweepTokenRepo struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newSweepTokenRepo() *sweepTokenRepo {
	return &sweepTokenRepo{revoked: make(map[string]bool)}
}

func (r *sweepTokenRepo) SaveRefreshToken(ctx context.Context, token auth.RefreshToken) error {
	return nil
}

func (r *sweepTokenRepo) FindRefreshToken(ctx context.Context, tokenValue string) (*auth.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &auth.RefreshToken{Token: tokenValue, IsRevoked: r.revoked[tokenValue]}, nil
}

func (r *sweepTokenRepo) RevokeRefreshToken(ctx context.Context, tokenValue string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[tokenValue] = true
	return nil
}

func (r *sweepTokenRepo) RevokeAllUserTokens(ctx context.Context, userID kernel.UserID) error {
	return nil
}

func (r *sweepTokenRepo) CleanExpiredTokens(ctx context.Context) error { return nil }

type sweepSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]auth.UserSession
}

func newSweepSessionRepo(sessions ...auth.UserSession) *sweepSessionRepo {
	r := &sweepSessionRepo{sessions: make(map[string]auth.UserSession)}
	for _, s := range sessions {
		r.sessions[s.ID] = s
	}
	return r
}

func (r *sweepSessionRepo) SaveSession(ctx context.Context, session auth.UserSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return nil
}

func (r *sweepSessionRepo) FindSession(ctx context.Context, sessionID string) (*auth.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, auth.ErrInvalidRefreshToken()
	}
	return &s, nil
}

func (r *sweepSessionRepo) FindUserSessions(ctx context.Context, userID kernel.UserID) ([]*auth.UserSession, error) {
	return nil, nil
}

func (r *sweepSessionRepo) RevokeSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

func (r *sweepSessionRepo) RevokeAllUserSessions(ctx context.Context, userID kernel.UserID) error {
	return nil
}

func (r *sweepSessionRepo) CleanExpiredSessions(ctx context.Context) error { return nil }

func (r *sweepSessionRepo) RotateSessionToken(ctx context.Context, oldToken, newToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.SessionToken == oldToken {
			s.SessionToken = newToken
			s.LastActivity = time.Now().UTC()
			r.sessions[id] = s
		}
	}
	return nil
}

func (r *sweepSessionRepo) FindIdleSessions(ctx context.Context, idleTimeout time.Duration) ([]*auth.UserSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-idleTimeout)
	var idle []*auth.UserSession
	for id := range r.sessions {
		s := r.sessions[id]
		if s.LastActivity.Before(cutoff) {
			idle = append(idle, &s)
		}
	}
	return idle, nil
}

type sweepVerificationRepo struct{}

func (sweepVerificationRepo) SaveVerificationToken(ctx context.Context, token auth.EmailVerificationToken) error {
	return nil
}

func (sweepVerificationRepo) FindVerificationToken(ctx context.Context, tokenValue string) (*auth.EmailVerificationToken, error) {
	return nil, auth.ErrInvalidVerificationToken()
}

func (sweepVerificationRepo) ConsumeVerificationToken(ctx context.Context, tokenValue string) error {
	return nil
}

func (sweepVerificationRepo) CleanExpiredVerificationTokens(ctx context.Context) error { return nil }

// --- Sweep tests ---

func session(id, token string, lastActivity time.Time) auth.UserSession {
	return auth.UserSession{
		ID:           id,
		UserID:       kernel.UserID("user-" + id),
		SessionToken: token,
		ExpiresAt:    time.Now().Add(24 * time.Hour),
		CreatedAt:    lastActivity,
		LastActivity: lastActivity,
	}
}

func TestSweep_IdleSessionLosesItsRefreshToken(t *testing.T) {
	now := time.Now().UTC()
	tokens := newSweepTokenRepo()
	sessions := newSweepSessionRepo(
		session("idle-1", "refresh-idle", now.Add(-2*time.Hour)),
		session("live-1", "refresh-live", now),
	)

	svc := authinfra.NewCleanupService(tokens, sessions, sweepVerificationRepo{}, time.Hour, time.Hour)
	svc.Sweep(context.Background())

	// The idle session is gone and cannot keep minting access tokens.
	if _, err := sessions.FindSession(context.Background(), "idle-1"); err == nil {
		t.Fatal("expected the idle session to be revoked")
	}
	if stored, _ := tokens.FindRefreshToken(context.Background(), "refresh-idle"); !stored.IsRevoked {
		t.Fatal("expected the idle session's refresh token to be revoked with it")
	}

	// The active session is untouched.
	if _, err := sessions.FindSession(context.Background(), "live-1"); err != nil {
		t.Fatalf("expected the active session to survive: %v", err)
	}
	if stored, _ := tokens.FindRefreshToken(context.Background(), "refresh-live"); stored.IsRevoked {
		t.Fatal("active session's refresh token must stay live")
	}
}

func TestSweep_ZeroIdleTimeoutDisablesIdleLogout(t *testing.T) {
	now := time.Now().UTC()
	tokens := newSweepTokenRepo()
	sessions := newSweepSessionRepo(session("old-1", "refresh-old", now.Add(-30*24*time.Hour)))

	svc := authinfra.NewCleanupService(tokens, sessions, sweepVerificationRepo{}, time.Hour, 0)
	svc.Sweep(context.Background())

	if _, err := sessions.FindSession(context.Background(), "old-1"); err != nil {
		t.Fatal("idle logout must be off when no idle timeout is configured")
	}
}
