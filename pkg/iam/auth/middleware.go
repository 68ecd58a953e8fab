package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/hirecopilot/relay/pkg/iam"
	"github.com/hirecopilot/relay/pkg/iam/user"
	"github.com/hirecopilot/relay/pkg/kernel"
)

// TokenMiddleware authenticates requests carrying a JWT.
type TokenMiddleware struct {
	tokenService TokenService
}

// NewAuthMiddleware creates the authentication middleware.
func NewAuthMiddleware(tokenService TokenService) *TokenMiddleware {
	return &TokenMiddleware{
		tokenService: tokenService,
	}
}

// Authenticate validates the access token from the Authorization header or
// the access_token cookie and injects the AuthContext into the request.
func (am *TokenMiddleware) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		var token string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
				token = parts[1]
			} else {
				token = c.Cookies("access_token")
				if token == "" {
					return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
						"error": iam.ErrInvalidToken().Error(),
					})
				}
			}
		} else {
			token = c.Cookies("access_token")
			if token == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": iam.ErrUnauthorized().Error(),
				})
			}
		}

		claims, err := am.tokenService.ValidateAccessToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		authContext := &kernel.AuthContext{
			UserID:    claims.UserID,
			CompanyID: claims.CompanyID,
			Email:     claims.Email,
			Name:      claims.Name,
			Role:      claims.Role,
		}

		c.Locals("auth", authContext)

		return c.Next()
	}
}

// RequireAdmin rejects requests whose token does not carry the Administrator
// role. This is a cheap routing gate; every admin service operation still
// re-resolves the requester's role from the store.
func (am *TokenMiddleware) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authContext := FromFiber(c)
		if authContext == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": iam.ErrUnauthorized().Error(),
			})
		}

		if authContext.Role != string(user.RoleAdministrator) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": iam.ErrAccessDenied().Error(),
			})
		}

		return c.Next()
	}
}

// FromFiber extracts the AuthContext injected by Authenticate, or nil.
func FromFiber(c *fiber.Ctx) *kernel.AuthContext {
	authContext, ok := c.Locals("auth").(*kernel.AuthContext)
	if !ok || authContext == nil || !authContext.IsValid() {
		return nil
	}
	return authContext
}
