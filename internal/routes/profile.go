package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/guard-pay/guard_pay/internal/profile"
)

// RegisterProfileRoutes wires the aggregated user views.
func RegisterProfileRoutes(r fiber.Router, h *profile.Handler) {
	r.Get("/users/:username/profile", h.Get)
	r.Get("/users/:username/history", h.History)
}
