package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/guard-pay/guard_pay/internal/card"
)

// RegisterCardRoutes wires the ghost card endpoints.
func RegisterCardRoutes(r fiber.Router, h *card.Handler) {
	r.Post("/cards", h.Issue)
	r.Post("/cards/spend", h.Spend)
	r.Get("/cards/:username", h.List)
}
