package company

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/kernel"
)

// Address is the postal address of a company.
type Address struct {
	Street  string `db:"street" json:"street"`
	City    string `db:"city" json:"city"`
	State   string `db:"state" json:"state"`
	Zip     string `db:"zip" json:"zip"`
	Country string `db:"country" json:"country"`
}

// Company is a tenant record. Created exactly once, by the first
// Administrator completing onboarding; every non-pending user record's
// company identifier references one of these.
type Company struct {
	ID        kernel.CompanyID `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	Address   Address          `db:"address" json:"address"`
	Phone     string           `db:"phone" json:"phone"`
	LogoURL   string           `db:"logo_url" json:"logo_url"`
	CreatedBy kernel.UserID    `db:"created_by" json:"created_by"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

var stateRe = regexp.MustCompile(`^[A-Z]{2}$`)

// Validate enforces the onboarding form rules server-side: name and phone are
// required, and state (when present) must be two uppercase letters.
func (c *Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errx.Validation("company name is required")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return errx.Validation("company phone is required")
	}
	if st := strings.TrimSpace(c.Address.State); st != "" && !stateRe.MatchString(st) {
		return errx.Validation("state must be 2 uppercase letters")
	}
	return nil
}

// ============================================================================
// DTOs
// ============================================================================

// CompanyDTO is the API representation of a company.
type CompanyDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   Address   `json:"address"`
	Phone     string    `json:"phone"`
	LogoURL   string    `json:"logo_url,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// ToDTO converts the company to its API representation.
func (c *Company) ToDTO() CompanyDTO {
	return CompanyDTO{
		ID:        c.ID.String(),
		Name:      c.Name,
		Address:   c.Address,
		Phone:     c.Phone,
		LogoURL:   c.LogoURL,
		CreatedBy: c.CreatedBy.String(),
		CreatedAt: c.CreatedAt,
	}
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("COMPANY")

var (
	CodeCompanyNotFound  = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Company not found")
	CodeAlreadyOnboarded = ErrRegistry.Register("ALREADY_ONBOARDED", errx.TypeConflict, http.StatusConflict, "Requester already belongs to a company")
	CodeInvalidLogo      = ErrRegistry.Register("INVALID_LOGO", errx.TypeValidation, http.StatusBadRequest, "Logo must be a PNG or JPEG up to 1 MiB")
)

func ErrCompanyNotFound() *errx.Error  { return ErrRegistry.New(CodeCompanyNotFound) }
func ErrAlreadyOnboarded() *errx.Error { return ErrRegistry.New(CodeAlreadyOnboarded) }
func ErrInvalidLogo() *errx.Error      { return ErrRegistry.New(CodeInvalidLogo) }
