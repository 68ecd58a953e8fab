package usersrv

import (
	"context"
	"strings"
	"time"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/iam"
	"github.com/hirecopilot/relay/pkg/iam/identity"
	"github.com/hirecopilot/relay/pkg/iam/user"
	"github.com/hirecopilot/relay/pkg/kernel"
	"github.com/hirecopilot/relay/pkg/logx"
)

// UserService owns the session-bootstrap path and the administrator-gated
// user-management operations. Every mutating operation re-derives the
// requester's role and company from the store; client-supplied claims are
// never trusted for authorization.
type UserService struct {
	userRepo    user.UserRepository
	accountRepo identity.AccountRepository
}

func NewUserService(userRepo user.UserRepository, accountRepo identity.AccountRepository) *UserService {
	return &UserService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
	}
}

// EnsureUser runs the session bootstrap on every successful authentication:
// if a user record exists the last-login time is stamped, otherwise a minimal
// record is created with the pending company sentinel. The create path is also
// the repair path for credentials orphaned by a failed invite redemption.
func (s *UserService) EnsureUser(ctx context.Context, account *identity.Account) (*user.User, error) {
	now := time.Now().UTC()

	existing, err := s.userRepo.FindByID(ctx, account.ID)
	if err == nil {
		if stampErr := s.userRepo.StampLastLogin(ctx, account.ID, now); stampErr != nil {
			// Non-fatal: the sign-in itself succeeded.
			logx.WithError(stampErr).WithField("user_id", account.ID).
				Warn("failed to stamp last login")
		}
		existing.LastLogin = &now
		return existing, nil
	}

	var notFound *errx.Error
	if !errx.As(err, &notFound) || notFound.Type != errx.TypeNotFound {
		return nil, err
	}

	fullName := strings.TrimSpace(account.DisplayName)
	if fullName == "" {
		fullName = "No Name"
	}

	newUser := user.User{
		ID:        account.ID,
		FullName:  fullName,
		Email:     account.Email,
		CompanyID: kernel.PendingCompanyID,
		Role:      user.RoleAdministrator,
		IsInvited: false,
		LastLogin: &now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Save(ctx, newUser); err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"user_id": account.ID,
		"email":   account.Email,
	}).Info("session bootstrap: created minimal user record")

	return &newUser, nil
}

// GetUser returns a single user record.
func (s *UserService) GetUser(ctx context.Context, id kernel.UserID) (*user.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// ListCompanyUsers returns the roster of the requester's company. The
// requester must be an Administrator.
func (s *UserService) ListCompanyUsers(ctx context.Context, requesterID kernel.UserID) ([]user.UserDTO, error) {
	requester, err := s.requireAdministrator(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.FindByCompany(ctx, requester.CompanyID)
	if err != nil {
		return nil, err
	}

	dtos := make([]user.UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, u.ToDTO())
	}
	return dtos, nil
}

// UpdateOwnName lets a user change their own full name.
func (s *UserService) UpdateOwnName(ctx context.Context, id kernel.UserID, fullName string) (*user.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, errx.Validation("full name must not be empty")
	}

	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.FullName = fullName
	u.UpdatedAt = time.Now().UTC()
	if err := s.userRepo.Save(ctx, *u); err != nil {
		return nil, err
	}

	return u, nil
}

// ChangeRole sets the role of a target user. The requester must be an
// Administrator of the same company as the target.
func (s *UserService) ChangeRole(ctx context.Context, requesterID, targetID kernel.UserID, role user.Role) error {
	if !role.IsValid() {
		return user.ErrInvalidRole().WithDetail("role", string(role))
	}

	requester, err := s.requireAdministrator(ctx, requesterID)
	if err != nil {
		return err
	}

	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}

	if !requester.SameCompany(target) {
		return iam.ErrUnauthorized().WithDetail("reason", "target belongs to a different company")
	}

	return s.userRepo.UpdateRole(ctx, targetID, role)
}

// DeleteUser disables the target's credential-store account and removes the
// user record. The requester must be an Administrator of the same company and
// may not target themself.
//
// The two steps are not atomic. Disabling runs first and is never rolled
// back: a partial failure must land on "access revoked", not "access
// retained". A dangling user record left behind by a failed delete surfaces
// as a retryable store error.
func (s *UserService) DeleteUser(ctx context.Context, requesterID, targetID kernel.UserID) error {
	requester, err := s.requireAdministrator(ctx, requesterID)
	if err != nil {
		return err
	}

	if requesterID == targetID {
		return user.ErrCannotModifySelf()
	}

	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}

	if !requester.SameCompany(target) {
		return iam.ErrUnauthorized().WithDetail("reason", "target belongs to a different company")
	}

	if err := s.accountRepo.Disable(ctx, targetID); err != nil {
		return errx.Wrap(err, "failed to disable account", errx.TypeInternal).
			WithDetail("target_uid", targetID.String())
	}

	if err := s.userRepo.Delete(ctx, targetID); err != nil {
		// Disabled account with a dangling user record. Safe state, but the
		// caller should retry the delete.
		logx.WithError(err).WithFields(logx.Fields{
			"target_uid": targetID.String(),
			"company_id": target.CompanyID.String(),
		}).Error("inconsistency: account disabled but user record delete failed")

		return errx.Wrap(err, "account disabled but user record removal failed, retry the delete", errx.TypeInternal).
			WithDetail("target_uid", targetID.String()).
			WithDetail("retryable", true)
	}

	logx.WithFields(logx.Fields{
		"audit_event":  "user_deleted",
		"requester_id": requesterID.String(),
		"target_uid":   targetID.String(),
		"company_id":   target.CompanyID.String(),
	}).Info("Audit: user deleted")

	return nil
}

// requireAdministrator resolves the requester from the store and verifies the
// Administrator role. A missing requester record is Unauthorized, not
// NotFound: an unknown caller has no standing.
func (s *UserService) requireAdministrator(ctx context.Context, requesterID kernel.UserID) (*user.User, error) {
	requester, err := s.userRepo.FindByID(ctx, requesterID)
	if err != nil {
		return nil, iam.ErrUnauthorized().WithDetail("reason", "requester has no user record")
	}
	if !requester.IsAdministrator() {
		return nil, iam.ErrUnauthorized().WithDetail("reason", "requester is not an administrator")
	}
	return requester, nil
}
