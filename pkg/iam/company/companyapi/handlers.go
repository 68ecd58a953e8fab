package companyapi

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/hirecopilot/relay/pkg/iam"
	"github.com/hirecopilot/relay/pkg/iam/auth"
	"github.com/hirecopilot/relay/pkg/iam/company"
	"github.com/hirecopilot/relay/pkg/iam/company/companysrv"
)

// CompanyHandlers exposes the company onboarding and profile HTTP surface.
type CompanyHandlers struct {
	service *companysrv.CompanyService
}

func NewCompanyHandlers(service *companysrv.CompanyService) *CompanyHandlers {
	return &CompanyHandlers{service: service}
}

// RegisterRoutes mounts company routes under the authenticated API group.
func (h *CompanyHandlers) RegisterRoutes(app *fiber.App, authMW *auth.TokenMiddleware) {
	api := app.Group("/api/v1/company", authMW.Authenticate())

	api.Get("/", h.Get)
	api.Post("/", h.Onboard)
	api.Patch("/", h.Update)
	api.Put("/logo", h.UploadLogo)
}

// Onboard handles POST /api/v1/company
func (h *CompanyHandlers) Onboard(c *fiber.Ctx) error {
	authContext := auth.FromFiber(c)
	if authContext == nil {
		return iam.ErrUnauthorized()
	}

	var req companysrv.OnboardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	created, err := h.service.Onboard(c.Context(), authContext.UserID, req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"company": created.ToDTO()})
}

// Get handles GET /api/v1/company
func (h *CompanyHandlers) Get(c *fiber.Ctx) error {
	authContext := auth.FromFiber(c)
	if authContext == nil {
		return iam.ErrUnauthorized()
	}

	result, err := h.service.Get(c.Context(), authContext.UserID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"company": result.ToDTO()})
}

// Update handles PATCH /api/v1/company
func (h *CompanyHandlers) Update(c *fiber.Ctx) error {
	authContext := auth.FromFiber(c)
	if authContext == nil {
		return iam.ErrUnauthorized()
	}

	var req companysrv.UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	updated, err := h.service.Update(c.Context(), authContext.UserID, req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"company": updated.ToDTO()})
}

// UploadLogo handles PUT /api/v1/company/logo (multipart field "logo")
func (h *CompanyHandlers) UploadLogo(c *fiber.Ctx) error {
	authContext := auth.FromFiber(c)
	if authContext == nil {
		return iam.ErrUnauthorized()
	}

	fileHeader, err := c.FormFile("logo")
	if err != nil {
		return company.ErrInvalidLogo().WithDetail("reason", "missing logo file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return company.ErrInvalidLogo().WithDetail("reason", "unreadable logo file")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, companysrv.MaxLogoSize+1))
	if err != nil {
		return company.ErrInvalidLogo().WithDetail("reason", "unreadable logo file")
	}

	updated, err := h.service.UploadLogo(c.Context(), authContext.UserID, fileHeader.Filename, data)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"company": updated.ToDTO()})
}
