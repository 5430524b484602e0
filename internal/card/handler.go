package card

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/guard-pay/guard_pay/internal/identity"
)

// Handler exposes the ghost card endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a card handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type issueRequest struct {
	Username    string  `json:"username"`
	Label       string  `json:"label"`
	AmountLimit float64 `json:"amount_limit"`
}

// Issue creates a new ghost card.
func (h *Handler) Issue(c *fiber.Ctx) error {
	var req issueRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if username, _ := c.Locals("username").(string); username != "" && req.Username != username {
		return fiber.NewError(http.StatusForbidden, "owner does not match authenticated user")
	}

	card, err := h.service.Issue(c.UserContext(), req.Username, req.Label, req.AmountLimit)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "user not found")
		case errors.Is(err, ErrInvalidLimit):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"status":  "CREATED",
		"owner":   card.Owner,
		"details": card,
	})
}

type spendRequest struct {
	CardID string  `json:"card_id"`
	Amount float64 `json:"amount"`
}

// Spend pays a merchant with a ghost card. Declines are reported in the
// response body, not as transport errors.
func (h *Handler) Spend(c *fiber.Ctx) error {
	var req spendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	err := h.service.Spend(c.UserContext(), req.CardID, req.Amount)
	switch {
	case err == nil:
		return c.JSON(fiber.Map{"status": "SUCCESS", "message": "Payment done and card destroyed."})
	case errors.Is(err, ErrDestroyed):
		return c.JSON(fiber.Map{"status": "DECLINED", "reason": "Card already self-destructed."})
	case errors.Is(err, ErrLimitExceeded):
		return c.JSON(fiber.Map{"status": "DECLINED", "reason": "Limit exceeded."})
	case errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}

// List returns all cards owned by a user.
func (h *Handler) List(c *fiber.Ctx) error {
	username := c.Params("username")
	cards, err := h.service.OwnedBy(c.UserContext(), username)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return fiber.NewError(http.StatusNotFound, "user not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{
		"username":    username,
		"total_cards": len(cards),
		"cards":       cards,
	})
}
