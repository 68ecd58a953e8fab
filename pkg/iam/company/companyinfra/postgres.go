package companyinfra

import (
	"context"
	"database/sql"

	"github.com/hirecopilot/relay/pkg/errx"
	"github.com/hirecopilot/relay/pkg/iam/company"
	"github.com/hirecopilot/relay/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// PostgresCompanyRepository is the PostgreSQL implementation of CompanyRepository.
type PostgresCompanyRepository struct {
	db *sqlx.DB
}

// NewPostgresCompanyRepository creates a new company repository instance.
func NewPostgresCompanyRepository(db *sqlx.DB) company.CompanyRepository {
	return &PostgresCompanyRepository{
		db: db,
	}
}

// companyRow flattens the embedded address for sqlx scanning.
type companyRow struct {
	ID        string       `db:"id"`
	Name      string       `db:"name"`
	Street    string       `db:"street"`
	City      string       `db:"city"`
	State     string       `db:"state"`
	Zip       string       `db:"zip"`
	Country   string       `db:"country"`
	Phone     string       `db:"phone"`
	LogoURL   string       `db:"logo_url"`
	CreatedBy string       `db:"created_by"`
	CreatedAt sql.NullTime `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
}

func (r companyRow) toDomain() *company.Company {
	c := &company.Company{
		ID:   kernel.NewCompanyID(r.ID),
		Name: r.Name,
		Address: company.Address{
			Street:  r.Street,
			City:    r.City,
			State:   r.State,
			Zip:     r.Zip,
			Country: r.Country,
		},
		Phone:     r.Phone,
		LogoURL:   r.LogoURL,
		CreatedBy: kernel.NewUserID(r.CreatedBy),
	}
	if r.CreatedAt.Valid {
		c.CreatedAt = r.CreatedAt.Time
	}
	if r.UpdatedAt.Valid {
		c.UpdatedAt = r.UpdatedAt.Time
	}
	return c
}

// FindByID looks up a company by identifier.
func (r *PostgresCompanyRepository) FindByID(ctx context.Context, id kernel.CompanyID) (*company.Company, error) {
	query := `
		SELECT
			id, name, street, city, state, zip, country,
			phone, logo_url, created_by, created_at, updated_at
		FROM companies
		WHERE id = $1`

	var row companyRow
	err := r.db.GetContext(ctx, &row, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, company.ErrCompanyNotFound().WithDetail("company_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find company by id", errx.TypeInternal).
			WithDetail("company_id", id.String())
	}

	return row.toDomain(), nil
}

// Save creates or updates a company record.
func (r *PostgresCompanyRepository) Save(ctx context.Context, c company.Company) error {
	query := `
		INSERT INTO companies (
			id, name, street, city, state, zip, country,
			phone, logo_url, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			street = EXCLUDED.street,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			zip = EXCLUDED.zip,
			country = EXCLUDED.country,
			phone = EXCLUDED.phone,
			logo_url = EXCLUDED.logo_url,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		c.ID.String(), c.Name,
		c.Address.Street, c.Address.City, c.Address.State, c.Address.Zip, c.Address.Country,
		c.Phone, c.LogoURL, c.CreatedBy.String(), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return errx.Wrap(err, "failed to save company", errx.TypeInternal).
			WithDetail("company_id", c.ID.String())
	}

	return nil
}

// Delete removes a company record.
func (r *PostgresCompanyRepository) Delete(ctx context.Context, id kernel.CompanyID) error {
	query := `DELETE FROM companies WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete company", errx.TypeInternal).
			WithDetail("company_id", id.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}

	if rowsAffected == 0 {
		return company.ErrCompanyNotFound().WithDetail("company_id", id.String())
	}

	return nil
}
