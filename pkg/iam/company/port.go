package company

import (
	"context"

	"github.com/hirecopilot/relay/pkg/kernel"
)

// CompanyRepository defines the contract for company-record persistence.
type CompanyRepository interface {
	// FindByID looks up a company by identifier.
	FindByID(ctx context.Context, id kernel.CompanyID) (*Company, error)

	// Save creates or updates a company record.
	Save(ctx context.Context, c Company) error

	// Delete removes a company record.
	Delete(ctx context.Context, id kernel.CompanyID) error
}
