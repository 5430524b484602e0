package profile

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/guard-pay/guard_pay/internal/identity"
)

// Handler exposes the aggregated user views.
type Handler struct {
	service *Service
}

// NewHandler constructs a profile handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Get returns the aggregated profile for a user.
func (h *Handler) Get(c *fiber.Ctx) error {
	prof, err := h.service.Get(c.UserContext(), c.Params("username"))
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "user not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(prof)
}

// History returns a user's transaction log.
func (h *Handler) History(c *fiber.Ctx) error {
	username := c.Params("username")
	history, err := h.service.History(c.UserContext(), username)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "user not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"username": username,
		"history":  history,
	})
}
