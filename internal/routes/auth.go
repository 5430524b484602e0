package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/guard-pay/guard_pay/internal/auth"
)

// RegisterAuthRoutes wires signup and login. The rate limiter only guards login.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	r.Post("/signup", h.Signup)
	r.Post("/login", rateLimiter, h.Login)
}
