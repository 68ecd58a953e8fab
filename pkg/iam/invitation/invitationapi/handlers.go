package invitationapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hirecopilot/relay/pkg/iam"
	"github.com/hirecopilot/relay/pkg/iam/auth"
	"github.com/hirecopilot/relay/pkg/iam/invitation"
	"github.com/hirecopilot/relay/pkg/iam/invitation/invitationsrv"
	"github.com/hirecopilot/relay/pkg/kernel"
)

// InvitationHandlers exposes the invitation HTTP surface: the authenticated
// management endpoints and the public token-addressed redemption endpoints.
type InvitationHandlers struct {
	service *invitationsrv.InvitationService
}

func NewInvitationHandlers(service *invitationsrv.InvitationService) *InvitationHandlers {
	return &InvitationHandlers{service: service}
}

// RegisterRoutes mounts invitation routes. Management routes require a valid
// token; the public routes authenticate by invite token alone.
func (h *InvitationHandlers) RegisterRoutes(app *fiber.App, authMW *auth.TokenMiddleware) {
	public := app.Group("/invitations/public")
	public.Get("/:token", h.Inspect)
	public.Post("/redeem", h.Redeem)

	api := app.Group("/api/v1/invitations", authMW.Authenticate())
	api.Get("/", h.List)
	api.Post("/", h.Issue)
	api.Post("/:token/resend", h.Resend)
	api.Delete("/:token", h.Revoke)
}

// Issue handles POST /api/v1/invitations
func (h *InvitationHandlers) Issue(c *fiber.Ctx) error {
	authContext := requireAuth(c)
	if authContext == nil {
		return iam.ErrUnauthorized()
	}

	var req invitationsrv.IssueRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	inv, err := h.service.Issue(c.Context(), authContext.UserID, req)
	if err != nil {
		// A delivery failure still created the invite; report both.
		if inv != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"invitation": inv.ToDTO(),
				"error":      err.Error(),
			})
		}
		return err
	}

	dto := inv.ToDTO()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"invitation": dto,
		"token":      inv.Token,
	})
}

// List handles GET /api/v1/invitations
func (h *InvitationHandlers) List(c *fiber.Ctx) error {
	authContext := requireAuth(c)
	if authContext == nil {
		return iam.ErrUnauthorized()
	}

	opts := kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	}

	page, err := h.service.List(c.Context(), authContext.UserID, opts)
	if err != nil {
		return err
	}

	return c.JSON(page)
}

// Inspect handles GET /invitations/public/:token
func (h *InvitationHandlers) Inspect(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return invitation.ErrInvitationNotFound()
	}

	dto, err := h.service.Inspect(c.Context(), token)
	if err != nil {
		return err
	}

	return c.JSON(dto)
}

// Redeem handles POST /invitations/public/redeem
func (h *InvitationHandlers) Redeem(c *fiber.Ctx) error {
	var req invitationsrv.RedeemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Token == "" {
		return invitation.ErrInvitationNotFound()
	}

	u, err := h.service.Redeem(c.Context(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":    u.ToDTO(),
		"message": "account created, you can sign in now",
	})
}

// Resend handles POST /api/v1/invitations/:token/resend
func (h *InvitationHandlers) Resend(c *fiber.Ctx) error {
	authContext := requireAuth(c)
	if authContext == nil {
		return iam.ErrUnauthorized()
	}

	inv, err := h.service.Resend(c.Context(), authContext.UserID, c.Params("token"))
	if err != nil {
		// The token already rotated; surface the fresh invite alongside the
		// delivery failure so the admin still has the new link.
		if inv != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"invitation": inv.ToDTO(),
				"token":      inv.Token,
				"error":      err.Error(),
			})
		}
		return err
	}

	return c.JSON(fiber.Map{
		"invitation": inv.ToDTO(),
		"token":      inv.Token,
	})
}

// Revoke handles DELETE /api/v1/invitations/:token
func (h *InvitationHandlers) Revoke(c *fiber.Ctx) error {
	authContext := requireAuth(c)
	if authContext == nil {
		return iam.ErrUnauthorized()
	}

	if err := h.service.Revoke(c.Context(), authContext.UserID, c.Params("token")); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "invitation revoked"})
}

func requireAuth(c *fiber.Ctx) *kernel.AuthContext {
	return auth.FromFiber(c)
}
