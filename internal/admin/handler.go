package admin

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/guard-pay/guard_pay/internal/blacklist"
	"github.com/guard-pay/guard_pay/internal/identity"
)

// Handler exposes the operator endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an admin handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Dashboard returns operational counters.
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.service.Dashboard(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(dashboard)
}

// GlobalStats returns fraud prevention totals.
func (h *Handler) GlobalStats(c *fiber.Ctx) error {
	stats, err := h.service.GlobalStats(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"metrics": stats})
}

type blockRequest struct {
	RecipientID string `json:"recipient_id"`
	Reason      string `json:"reason"`
}

// BlockRecipient adds an identifier to the scam blacklist.
func (h *Handler) BlockRecipient(c *fiber.Ctx) error {
	var req blockRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.RecipientID == "" {
		return fiber.NewError(http.StatusBadRequest, "recipient_id is required")
	}

	err := h.service.BlockRecipient(c.UserContext(), req.RecipientID, req.Reason)
	if errors.Is(err, blacklist.ErrExists) {
		return c.JSON(fiber.Map{"message": "ID already in blacklist"})
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"status": "BLACKLISTED", "id": req.RecipientID})
}

// PenalizeUser deducts trust from a flagged account.
func (h *Handler) PenalizeUser(c *fiber.Ctx) error {
	username := c.Params("username")
	trust, err := h.service.PenalizeUser(c.UserContext(), username)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "user not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"message":         "User " + username + " penalized.",
		"new_trust_score": trust,
	})
}
