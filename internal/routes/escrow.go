package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/guard-pay/guard_pay/internal/escrow"
)

// RegisterEscrowRoutes wires the escrow lifecycle endpoints.
func RegisterEscrowRoutes(r fiber.Router, h *escrow.Handler) {
	r.Post("/escrows", h.Create)
	r.Get("/escrows/:id", h.Status)
	r.Post("/escrows/:id/release", h.Release)
	r.Post("/escrows/:id/refund", h.Refund)
}
