package authinfra

import (
	"context"
	"time"

	"github.com/hirecopilot/relay/pkg/iam/auth"
	"github.com/hirecopilot/relay/pkg/logx"
)

// CleanupService periodically removes expired refresh tokens, verification
// tokens and sessions. It also revokes idle sessions, which is the server
// half of the auto-logout behavior.
type CleanupService struct {
	tokenRepo        auth.TokenRepository
	sessionRepo      auth.SessionRepository
	verificationRepo auth.EmailVerificationRepository
	interval         time.Duration
	idleTimeout      time.Duration
}

func NewCleanupService(
	tokenRepo auth.TokenRepository,
	sessionRepo auth.SessionRepository,
	verificationRepo auth.EmailVerificationRepository,
	interval time.Duration,
	idleTimeout time.Duration,
) *CleanupService {
	if interval == 0 {
		interval = time.Hour
	}
	return &CleanupService{
		tokenRepo:        tokenRepo,
		sessionRepo:      sessionRepo,
		verificationRepo: verificationRepo,
		interval:         interval,
		idleTimeout:      idleTimeout,
	}
}

// Start runs the cleanup loop until the context is cancelled.
func (s *CleanupService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// One pass at startup so a restart doesn't postpone cleanup.
	s.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			logx.Info("auth cleanup service stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one cleanup pass.
func (s *CleanupService) Sweep(ctx context.Context) {
	if err := s.tokenRepo.CleanExpiredTokens(ctx); err != nil {
		logx.WithError(err).Warn("failed to clean expired refresh tokens")
	}
	if err := s.sessionRepo.CleanExpiredSessions(ctx); err != nil {
		logx.WithError(err).Warn("failed to clean expired sessions")
	}
	if err := s.verificationRepo.CleanExpiredVerificationTokens(ctx); err != nil {
		logx.WithError(err).Warn("failed to clean expired verification tokens")
	}

	if s.idleTimeout > 0 {
		s.revokeIdle(ctx)
	}
}

// revokeIdle logs out sessions with no recent activity. Dropping the session
// row alone is not enough: the refresh token it carries would keep minting
// access tokens until its own expiry, so both are revoked together.
func (s *CleanupService) revokeIdle(ctx context.Context) {
	idle, err := s.sessionRepo.FindIdleSessions(ctx, s.idleTimeout)
	if err != nil {
		logx.WithError(err).Warn("failed to find idle sessions")
		return
	}

	var revoked int
	for _, sess := range idle {
		if sess.SessionToken != "" {
			if err := s.tokenRepo.RevokeRefreshToken(ctx, sess.SessionToken); err != nil {
				logx.WithError(err).WithField("session_id", sess.ID).
					Warn("failed to revoke refresh token of idle session")
				continue
			}
		}
		if err := s.sessionRepo.RevokeSession(ctx, sess.ID); err != nil {
			logx.WithError(err).WithField("session_id", sess.ID).
				Warn("failed to revoke idle session")
			continue
		}
		revoked++
	}
	if revoked > 0 {
		logx.WithField("count", revoked).Info("revoked idle sessions")
	}
}
