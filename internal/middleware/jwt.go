package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/guard-pay/guard_pay/internal/auth"
	"github.com/guard-pay/guard_pay/internal/identity"
)

// JWTAuth returns a middleware that validates bearer tokens and binds the
// authenticated username to the request.
func JWTAuth(tokens *auth.TokenService, repo identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])

		username, err := tokens.Verify(token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		// Tokens outlive accounts; re-check the user still exists.
		if _, err := repo.FindByUsername(c.UserContext(), username); err != nil {
			return fiber.NewError(http.StatusUnauthorized, "unknown user")
		}

		c.Locals("username", username)
		return c.Next()
	}
}
