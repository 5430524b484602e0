package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/guard-pay/guard_pay/internal/admin"
)

// RegisterAdminRoutes wires the operator endpoints.
func RegisterAdminRoutes(r fiber.Router, h *admin.Handler) {
	grp := r.Group("/admin")
	grp.Get("/dashboard", h.Dashboard)
	grp.Get("/global-stats", h.GlobalStats)
	grp.Post("/block-id", h.BlockRecipient)
	grp.Post("/penalize/:username", h.PenalizeUser)
}
