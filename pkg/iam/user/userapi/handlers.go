package userapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hirecopilot/relay/pkg/iam"
	"github.com/hirecopilot/relay/pkg/iam/auth"
	"github.com/hirecopilot/relay/pkg/iam/user"
	"github.com/hirecopilot/relay/pkg/iam/user/usersrv"
	"github.com/hirecopilot/relay/pkg/kernel"
)

// UserHandlers exposes the user-management HTTP surface.
type UserHandlers struct {
	service *usersrv.UserService
}

func NewUserHandlers(service *usersrv.UserService) *UserHandlers {
	return &UserHandlers{service: service}
}

// RegisterRoutes mounts user routes. All require authentication; the service
// layer enforces the Administrator gates.
func (h *UserHandlers) RegisterRoutes(app *fiber.App, authMW *auth.TokenMiddleware) {
	api := app.Group("/api/v1/users", authMW.Authenticate())

	api.Get("/", h.List)
	api.Patch("/me", h.UpdateMe)
	api.Patch("/:id/role", h.ChangeRole)
	api.Delete("/:id", h.Delete)
}

// List handles GET /api/v1/users
func (h *UserHandlers) List(c *fiber.Ctx) error {
	authContext := auth.FromFiber(c)
	if authContext == nil {
		return iam.ErrUnauthorized()
	}

	users, err := h.service.ListCompanyUsers(c.Context(), authContext.UserID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"users": users})
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandlers) UpdateMe(c *fiber.Ctx) error {
	authContext := auth.FromFiber(c)
	if authContext == nil {
		return iam.ErrUnauthorized()
	}

	var body struct {
		FullName string `json:"full_name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	u, err := h.service.UpdateOwnName(c.Context(), authContext.UserID, body.FullName)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"user": u.ToDTO()})
}

// ChangeRole handles PATCH /api/v1/users/:id/role
func (h *UserHandlers) ChangeRole(c *fiber.Ctx) error {
	authContext := auth.FromFiber(c)
	if authContext == nil {
		return iam.ErrUnauthorized()
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	targetID := kernel.NewUserID(c.Params("id"))
	if err := h.service.ChangeRole(c.Context(), authContext.UserID, targetID, user.Role(body.Role)); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "role updated"})
}

// Delete handles DELETE /api/v1/users/:id
func (h *UserHandlers) Delete(c *fiber.Ctx) error {
	authContext := auth.FromFiber(c)
	if authContext == nil {
		return iam.ErrUnauthorized()
	}

	targetID := kernel.NewUserID(c.Params("id"))
	if err := h.service.DeleteUser(c.Context(), authContext.UserID, targetID); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "user deleted"})
}
