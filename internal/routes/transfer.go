package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/guard-pay/guard_pay/internal/transfer"
)

// RegisterTransferRoutes wires the screened transfer endpoint.
func RegisterTransferRoutes(r fiber.Router, h *transfer.Handler) {
	r.Post("/transfers", h.Submit)
}
