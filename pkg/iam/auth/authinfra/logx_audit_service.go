package authinfra

import (
	"context"
	"time"

	"github.com/hirecopilot/relay/pkg/kernel"
	"github.com/hirecopilot/relay/pkg/logx"
)

// LogxAuditService implements auth.AuditService using structured logx logging.
type LogxAuditService struct{}

func NewLogxAuditService() *LogxAuditService {
	return &LogxAuditService{}
}

func (s *LogxAuditService) LogLoginAttempt(_ context.Context, userID kernel.UserID, companyID kernel.CompanyID, method string, success bool, ip string, userAgent string) {
	logx.WithFields(logx.Fields{
		"audit_event": "login_attempt",
		"user_id":     userID,
		"company_id":  companyID,
		"method":      method,
		"success":     success,
		"ip":          ip,
		"user_agent":  userAgent,
		"timestamp":   time.Now(),
	}).Info("Audit: login attempt")
}

func (s *LogxAuditService) LogLogout(_ context.Context, userID kernel.UserID, companyID kernel.CompanyID, ip string) {
	logx.WithFields(logx.Fields{
		"audit_event": "logout",
		"user_id":     userID,
		"company_id":  companyID,
		"ip":          ip,
		"timestamp":   time.Now(),
	}).Info("Audit: logout")
}

func (s *LogxAuditService) LogTokenRefresh(_ context.Context, userID kernel.UserID, companyID kernel.CompanyID, ip string) {
	logx.WithFields(logx.Fields{
		"audit_event": "token_refresh",
		"user_id":     userID,
		"company_id":  companyID,
		"ip":          ip,
		"timestamp":   time.Now(),
	}).Info("Audit: token refresh")
}

func (s *LogxAuditService) LogAccountCreated(_ context.Context, userID kernel.UserID, companyID kernel.CompanyID, method string, ip string) {
	logx.WithFields(logx.Fields{
		"audit_event": "account_created",
		"user_id":     userID,
		"company_id":  companyID,
		"method":      method,
		"ip":          ip,
		"timestamp":   time.Now(),
	}).Info("Audit: account created")
}

func (s *LogxAuditService) LogEmailVerified(_ context.Context, userID kernel.UserID, email string, ip string) {
	logx.WithFields(logx.Fields{
		"audit_event": "email_verified",
		"user_id":     userID,
		"email":       email,
		"ip":          ip,
		"timestamp":   time.Now(),
	}).Info("Audit: email verified")
}
