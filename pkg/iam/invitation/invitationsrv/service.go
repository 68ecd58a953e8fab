package invitationsrv

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hirecopilot/relay/pkg/asyncx"
	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/iam"
	"github.com/hirecopilot/relay/pkg/iam/company"
	"github.com/hirecopilot/relay/pkg/iam/identity"
	"github.com/hirecopilot/relay/pkg/iam/invitation"
	"github.com/hirecopilot/relay/pkg/iam/user"
	"github.com/hirecopilot/relay/pkg/kernel"
	"github.com/hirecopilot/relay/pkg/logx"
	"github.com/hirecopilot/relay/pkg/notifx"
)

// mailSendTimeout bounds a single provider call when sending an invite email.
const mailSendTimeout = 10 * time.Second

// Config holds the invitation flow settings.
type Config struct {
	// TTL is the redemption window. Invites are dead after this, full stop.
	TTL time.Duration

	// BaseURL is the public origin used to build redemption links.
	BaseURL string

	// FromAddress is the sender of invitation emails.
	FromAddress string
}

// IssueRequest is an administrator's request to invite a new member.
type IssueRequest struct {
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Role     user.Role `json:"role"`
}

// RedeemRequest exchanges an invite token for a fully provisioned account.
type RedeemRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// InvitationService owns the invite-based provisioning workflow: issuing,
// inspecting, redeeming, resending and revoking invites. Redemption is the
// only path that creates a pre-assigned account; everything else lands on the
// self-service bootstrap.
type InvitationService struct {
	inviteRepo  invitation.InvitationRepository
	userRepo    user.UserRepository
	accountRepo identity.AccountRepository
	companyRepo company.CompanyRepository
	passwords   identity.PasswordService
	mailer      *notifx.Client
	cfg         Config
}

func NewInvitationService(
	inviteRepo invitation.InvitationRepository,
	userRepo user.UserRepository,
	accountRepo identity.AccountRepository,
	companyRepo company.CompanyRepository,
	passwords identity.PasswordService,
	mailer *notifx.Client,
	cfg Config,
) *InvitationService {
	svc := &InvitationService{
		inviteRepo:  inviteRepo,
		userRepo:    userRepo,
		accountRepo: accountRepo,
		companyRepo: companyRepo,
		passwords:   passwords,
		mailer:      mailer,
		cfg:         cfg,
	}
	if svc.mailer != nil {
		if err := svc.mailer.RegisterTemplate(inviteTemplateName, inviteTemplateHTML); err != nil {
			logx.WithError(err).Error("failed to register invitation email template")
		}
	}
	return svc
}

// Issue creates a pending invite for the requester's company and emails the
// redemption link. The requester must be an onboarded Administrator.
func (s *InvitationService) Issue(ctx context.Context, requesterID kernel.UserID, req IssueRequest) (*invitation.Invitation, error) {
	requester, err := s.requireCompanyAdmin(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.FullName == "" {
		return nil, errx.Validation("full name and email are required")
	}
	if !req.Role.IsValid() {
		return nil, user.ErrInvalidRole().WithDetail("role", string(req.Role))
	}

	token, err := invitation.NewToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inv := &invitation.Invitation{
		Token:        token,
		FullName:     req.FullName,
		Email:        req.Email,
		Role:         req.Role,
		CompanyID:    requester.CompanyID,
		Status:       invitation.StatusPending,
		InvitedBy:    requesterID,
		InviteSentAt: now,
		ExpiresAt:    now.Add(s.cfg.TTL),
	}

	if err := s.inviteRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	if err := s.deliver(ctx, inv, requester.FullName); err != nil {
		// The invite exists and can be resent; surface the delivery failure.
		return inv, err
	}

	logx.WithFields(logx.Fields{
		"audit_event": "invitation_issued",
		"invited_by":  requesterID.String(),
		"email":       req.Email,
		"company_id":  requester.CompanyID.String(),
		"token":       tokenHint(token),
	}).Info("Audit: invitation issued")

	return inv, nil
}

// Inspect returns the public view of an invite. No authentication: the token
// itself is the capability. A token that resolves but is past its window
// reports expired; anything else is not found, including redeemed invites.
func (s *InvitationService) Inspect(ctx context.Context, token string) (*invitation.InvitationDTO, error) {
	inv, err := s.inviteRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv.IsExpired() {
		return nil, invitation.ErrInvitationExpired()
	}

	dto := inv.ToDTO()
	dto.CompanyName = s.companyDisplayName(ctx, inv.CompanyID)
	return &dto, nil
}

// Redeem exchanges a live invite for a provisioned account and user record in
// one flow. Password validation happens before anything is touched, and the
// invite row is consumed with a conditional delete so exactly one concurrent
// redeemer proceeds.
func (s *InvitationService) Redeem(ctx context.Context, req RedeemRequest) (*user.User, error) {
	if err := identity.ValidatePassword(req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	// Pre-read only to tell "expired" apart from "never existed". The read is
	// advisory; the conditional delete below is the actual gate.
	probe, err := s.inviteRepo.FindByToken(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	if probe.IsExpired() {
		return nil, invitation.ErrInvitationExpired()
	}

	inv, err := s.inviteRepo.ConsumePending(ctx, req.Token)
	if err != nil {
		var xerr *errx.Error
		if errx.As(err, &xerr) && xerr.Type == errx.TypeNotFound {
			// The row was live a moment ago; a concurrent redeemer won it.
			return nil, invitation.ErrAlreadyRedeemed()
		}
		return nil, err
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := identity.Account{
		ID:           kernel.NewUserID(uuid.NewString()),
		Email:        inv.Email,
		PasswordHash: hash,
		AuthMethod:   identity.AuthMethodPassword,
		DisplayName:  inv.FullName,
		// Invited users skip email verification: the invite email already
		// proved control of the address.
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		// An existing account for this email means the invitee signed up out
		// of band; the consumed invite stays gone. Any other failure is
		// transient, so the invite row is re-created (it was never updated in
		// place) and the same link stays redeemable on retry.
		var xerr *errx.Error
		if errx.As(err, &xerr) && xerr.Code == identity.CodeEmailInUse.Code {
			logx.WithError(err).WithFields(logx.Fields{
				"email": inv.Email,
				"token": tokenHint(inv.Token),
			}).Warn("invite consumed but invitee already has an account")
			return nil, err
		}

		if restoreErr := s.inviteRepo.Create(ctx, inv); restoreErr != nil {
			logx.WithError(restoreErr).WithFields(logx.Fields{
				"email": inv.Email,
				"token": tokenHint(inv.Token),
			}).Error("inconsistency: invite consumed and could not be restored after account creation failure")
		} else {
			logx.WithError(err).WithFields(logx.Fields{
				"email": inv.Email,
				"token": tokenHint(inv.Token),
			}).Warn("account creation failed, invite restored")
		}
		return nil, err
	}

	newUser := user.User{
		ID:        account.ID,
		FullName:  inv.FullName,
		Email:     inv.Email,
		CompanyID: inv.CompanyID,
		Role:      inv.Role,
		IsInvited: true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Save(ctx, newUser); err != nil {
		// Orphaned credential: the account exists without a user record. The
		// session bootstrap creates a minimal record on first sign-in, so the
		// invitee is not locked out, but they lose the pre-assigned company
		// and role.
		logx.WithError(err).WithFields(logx.Fields{
			"user_id":    account.ID.String(),
			"company_id": inv.CompanyID.String(),
			"token":      tokenHint(inv.Token),
		}).Error("inconsistency: account created but user record save failed")

		return nil, errx.Wrap(err, "account created but user record save failed", errx.TypeInternal).
			WithDetail("user_id", account.ID.String())
	}

	logx.WithFields(logx.Fields{
		"audit_event": "invitation_redeemed",
		"user_id":     account.ID.String(),
		"company_id":  inv.CompanyID.String(),
		"role":        string(inv.Role),
	}).Info("Audit: invitation redeemed")

	return &newUser, nil
}

// Resend revokes the current token and issues a fresh one to the same
// invitee, restarting the redemption window. Rotating the token keeps stale
// links in old emails from outliving the newest one.
func (s *InvitationService) Resend(ctx context.Context, requesterID kernel.UserID, token string) (*invitation.Invitation, error) {
	requester, err := s.requireCompanyAdmin(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	old, err := s.inviteRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if old.CompanyID != requester.CompanyID {
		return nil, iam.ErrUnauthorized().WithDetail("reason", "invitation belongs to a different company")
	}

	fresh, err := invitation.NewToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inv := &invitation.Invitation{
		Token:        fresh,
		FullName:     old.FullName,
		Email:        old.Email,
		Role:         old.Role,
		CompanyID:    old.CompanyID,
		Status:       invitation.StatusPending,
		InvitedBy:    requesterID,
		InviteSentAt: now,
		ExpiresAt:    now.Add(s.cfg.TTL),
	}

	if err := s.inviteRepo.Create(ctx, inv); err != nil {
		return nil, err
	}
	if err := s.inviteRepo.Delete(ctx, old.Token); err != nil {
		var xerr *errx.Error
		if !errx.As(err, &xerr) || xerr.Type != errx.TypeNotFound {
			logx.WithError(err).WithField("token", tokenHint(old.Token)).
				Warn("failed to remove superseded invitation")
		}
	}

	if err := s.deliver(ctx, inv, requester.FullName); err != nil {
		return inv, err
	}

	logx.WithFields(logx.Fields{
		"audit_event": "invitation_resent",
		"invited_by":  requesterID.String(),
		"email":       inv.Email,
		"token":       tokenHint(fresh),
	}).Info("Audit: invitation resent")

	return inv, nil
}

// Revoke removes a pending invite so its token can no longer be redeemed.
func (s *InvitationService) Revoke(ctx context.Context, requesterID kernel.UserID, token string) error {
	requester, err := s.requireCompanyAdmin(ctx, requesterID)
	if err != nil {
		return err
	}

	inv, err := s.inviteRepo.FindByToken(ctx, token)
	if err != nil {
		return err
	}
	if inv.CompanyID != requester.CompanyID {
		return iam.ErrUnauthorized().WithDetail("reason", "invitation belongs to a different company")
	}

	if err := s.inviteRepo.Delete(ctx, token); err != nil {
		return err
	}

	logx.WithFields(logx.Fields{
		"audit_event": "invitation_revoked",
		"revoked_by":  requesterID.String(),
		"email":       inv.Email,
		"token":       tokenHint(token),
	}).Info("Audit: invitation revoked")

	return nil
}

// List returns the requester company's invites, newest first.
func (s *InvitationService) List(ctx context.Context, requesterID kernel.UserID, opts kernel.PaginationOptions) (kernel.Paginated[invitation.Invitation], error) {
	requester, err := s.requireCompanyAdmin(ctx, requesterID)
	if err != nil {
		return kernel.Paginated[invitation.Invitation]{}, err
	}

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 || opts.PageSize > 100 {
		opts.PageSize = 20
	}

	return s.inviteRepo.FindByCompany(ctx, requester.CompanyID, opts)
}

// SweepExpired removes every invite whose window has closed. Called from the
// background sweep job.
func (s *InvitationService) SweepExpired(ctx context.Context) (int64, error) {
	swept, err := s.inviteRepo.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		logx.WithField("count", swept).Info("swept expired invitations")
	}
	return swept, nil
}

func (s *InvitationService) deliver(ctx context.Context, inv *invitation.Invitation, inviterName string) error {
	if s.mailer == nil {
		return nil
	}

	data := inviteTemplateData{
		FullName:    inv.FullName,
		InviterName: inviterName,
		CompanyName: s.companyDisplayName(ctx, inv.CompanyID),
		Link:        inv.RedemptionLink(s.cfg.BaseURL),
		ExpiresAt:   inv.ExpiresAt.Format("Jan 2, 2006 15:04 MST"),
	}

	msg := notifx.EmailMessage{
		From:    s.cfg.FromAddress,
		To:      []string{inv.Email},
		Subject: "You're invited to join " + data.CompanyName + " on HireCopilot",
	}

	// Delivery happens on the request path, so a hung provider call must not
	// hold the handler open.
	_, err := asyncx.WithTimeout(ctx, mailSendTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.mailer.SendTemplatedEmail(ctx, inviteTemplateName, data, msg)
	})
	if err != nil {
		logx.WithError(err).WithFields(logx.Fields{
			"email": inv.Email,
			"token": tokenHint(inv.Token),
		}).Error("failed to deliver invitation email")
		return invitation.ErrDeliveryFailed().WithDetail("email", inv.Email)
	}

	return nil
}

func (s *InvitationService) companyDisplayName(ctx context.Context, id kernel.CompanyID) string {
	c, err := s.companyRepo.FindByID(ctx, id)
	if err != nil || c.Name == "" {
		return id.String()
	}
	return c.Name
}

// requireCompanyAdmin resolves the requester and verifies they are an
// Administrator of a real company. Pre-onboarding administrators cannot
// invite: there is no company to invite into yet.
func (s *InvitationService) requireCompanyAdmin(ctx context.Context, requesterID kernel.UserID) (*user.User, error) {
	requester, err := s.userRepo.FindByID(ctx, requesterID)
	if err != nil {
		return nil, iam.ErrUnauthorized().WithDetail("reason", "requester has no user record")
	}
	if !requester.IsAdministrator() {
		return nil, iam.ErrUnauthorized().WithDetail("reason", "requester is not an administrator")
	}
	if requester.CompanyID.IsPending() || requester.CompanyID.IsEmpty() {
		return nil, iam.ErrUnauthorized().WithDetail("reason", "requester has not completed onboarding")
	}
	return requester, nil
}

// tokenHint returns a loggable prefix of an invite token. The full token is a
// bearer credential and must never reach the logs.
func tokenHint(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8] + "…"
}
