package companysrv

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/fsx"
	"github.com/hirecopilot/relay/pkg/iam"
	"github.com/hirecopilot/relay/pkg/iam/company"
	"github.com/hirecopilot/relay/pkg/iam/user"
	"github.com/hirecopilot/relay/pkg/kernel"
	"github.com/hirecopilot/relay/pkg/logx"
	"github.com/hirecopilot/relay/pkg/ptrx"
)

// MaxLogoSize is the largest accepted company logo upload.
const MaxLogoSize = 1 << 20 // 1 MiB

// OnboardRequest carries the company-profile form fields.
type OnboardRequest struct {
	Name    string          `json:"name"`
	Address company.Address `json:"address"`
	Phone   string          `json:"phone"`
}

// UpdateRequest carries optional company updates.
type UpdateRequest struct {
	Name    *string          `json:"name,omitempty"`
	Address *company.Address `json:"address,omitempty"`
	Phone   *string          `json:"phone,omitempty"`
}

// CompanyService owns tenant onboarding and company-profile maintenance.
type CompanyService struct {
	companyRepo company.CompanyRepository
	userRepo    user.UserRepository
	files       fsx.FileSystem
	publicURL   string
}

func NewCompanyService(companyRepo company.CompanyRepository, userRepo user.UserRepository, files fsx.FileSystem, publicURL string) *CompanyService {
	return &CompanyService{
		companyRepo: companyRepo,
		userRepo:    userRepo,
		files:       files,
		publicURL:   publicURL,
	}
}

// Onboard creates the company record for a first Administrator and moves
// their user record off the pending sentinel. It refuses when the requester
// is not an Administrator or has already onboarded, so a tenant is created
// exactly once.
func (s *CompanyService) Onboard(ctx context.Context, requesterID kernel.UserID, req OnboardRequest) (*company.Company, error) {
	requester, err := s.userRepo.FindByID(ctx, requesterID)
	if err != nil {
		return nil, iam.ErrUnauthorized().WithDetail("reason", "requester has no user record")
	}
	if !requester.IsAdministrator() {
		return nil, iam.ErrUnauthorized().WithDetail("reason", "requester is not an administrator")
	}
	if requester.IsOnboarded() {
		return nil, company.ErrAlreadyOnboarded().WithDetail("company_id", requester.CompanyID.String())
	}

	now := time.Now().UTC()
	newCompany := company.Company{
		ID:        kernel.NewCompanyID(uuid.NewString()),
		Name:      strings.TrimSpace(req.Name),
		Address:   req.Address,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedBy: requesterID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := newCompany.Validate(); err != nil {
		return nil, err
	}

	if err := s.companyRepo.Save(ctx, newCompany); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateCompany(ctx, requesterID, newCompany.ID); err != nil {
		// The company exists but the requester is still pending. Surface a
		// retryable error; a retry re-runs only the user transition.
		logx.WithError(err).WithFields(logx.Fields{
			"user_id":    requesterID.String(),
			"company_id": newCompany.ID.String(),
		}).Error("inconsistency: company created but onboarding transition failed")
		return nil, errx.Wrap(err, "company created but user transition failed, retry onboarding", errx.TypeInternal).
			WithDetail("company_id", newCompany.ID.String()).
			WithDetail("retryable", true)
	}

	logx.WithFields(logx.Fields{
		"audit_event": "company_onboarded",
		"user_id":     requesterID.String(),
		"company_id":  newCompany.ID.String(),
	}).Info("Audit: company onboarded")

	return &newCompany, nil
}

// Get returns the requester's company.
func (s *CompanyService) Get(ctx context.Context, requesterID kernel.UserID) (*company.Company, error) {
	requester, err := s.userRepo.FindByID(ctx, requesterID)
	if err != nil {
		return nil, iam.ErrUnauthorized().WithDetail("reason", "requester has no user record")
	}
	if !requester.IsOnboarded() {
		return nil, company.ErrCompanyNotFound().WithDetail("reason", "requester has not onboarded")
	}
	return s.companyRepo.FindByID(ctx, requester.CompanyID)
}

// Update applies partial changes to the requester's company. Only
// Administrators of the company may update it.
func (s *CompanyService) Update(ctx context.Context, requesterID kernel.UserID, req UpdateRequest) (*company.Company, error) {
	requester, err := s.requireCompanyAdmin(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	c, err := s.companyRepo.FindByID(ctx, requester.CompanyID)
	if err != nil {
		return nil, err
	}

	c.Name = strings.TrimSpace(ptrx.ValueOr(req.Name, c.Name))
	c.Address = ptrx.ValueOr(req.Address, c.Address)
	c.Phone = strings.TrimSpace(ptrx.ValueOr(req.Phone, c.Phone))

	if err := c.Validate(); err != nil {
		return nil, err
	}

	c.UpdatedAt = time.Now().UTC()
	if err := s.companyRepo.Save(ctx, *c); err != nil {
		return nil, err
	}

	return c, nil
}

// UploadLogo stores a company logo and records its URL. PNG and JPEG only,
// capped at MaxLogoSize.
func (s *CompanyService) UploadLogo(ctx context.Context, requesterID kernel.UserID, filename string, data []byte) (*company.Company, error) {
	requester, err := s.requireCompanyAdmin(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 || len(data) > MaxLogoSize {
		return nil, company.ErrInvalidLogo().WithDetail("size", len(data))
	}
	contentType := http.DetectContentType(data)
	if contentType != "image/png" && contentType != "image/jpeg" {
		return nil, company.ErrInvalidLogo().WithDetail("content_type", contentType)
	}

	c, err := s.companyRepo.FindByID(ctx, requester.CompanyID)
	if err != nil {
		return nil, err
	}

	path := s.files.Join("company-logos", c.ID.String(), fmt.Sprintf("%s-%s", uuid.NewString()[:8], sanitizeFilename(filename)))
	if err := s.files.WriteFile(ctx, path, data); err != nil {
		return nil, errx.Wrap(err, "failed to store company logo", errx.TypeExternal).
			WithDetail("company_id", c.ID.String())
	}

	c.LogoURL = strings.TrimRight(s.publicURL, "/") + "/" + path
	c.UpdatedAt = time.Now().UTC()
	if err := s.companyRepo.Save(ctx, *c); err != nil {
		return nil, err
	}

	return c, nil
}

// DisplayName returns the company name for the public redemption page,
// falling back to the raw identifier when the record is missing.
func (s *CompanyService) DisplayName(ctx context.Context, id kernel.CompanyID) string {
	c, err := s.companyRepo.FindByID(ctx, id)
	if err != nil {
		return id.String()
	}
	return c.Name
}

func (s *CompanyService) requireCompanyAdmin(ctx context.Context, requesterID kernel.UserID) (*user.User, error) {
	requester, err := s.userRepo.FindByID(ctx, requesterID)
	if err != nil {
		return nil, iam.ErrUnauthorized().WithDetail("reason", "requester has no user record")
	}
	if !requester.IsAdministrator() || !requester.IsOnboarded() {
		return nil, iam.ErrUnauthorized().WithDetail("reason", "requester is not an administrator of a company")
	}
	return requester, nil
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "logo"
	}
	return name
}
