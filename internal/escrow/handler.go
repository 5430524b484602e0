package escrow

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/guard-pay/guard_pay/internal/identity"
)

// Handler exposes the escrow endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an escrow handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	SenderID   string  `json:"sender_id"`
	ReceiverID string  `json:"receiver_id"`
	Amount     float64 `json:"amount"`
}

// Create locks funds in escrow.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if username, _ := c.Locals("username").(string); username != "" && req.SenderID != username {
		return fiber.NewError(http.StatusForbidden, "sender does not match authenticated user")
	}

	payment, err := h.service.Create(c.UserContext(), req.SenderID, req.ReceiverID, req.Amount)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"status":    "ESCROW_LOCKED",
		"escrow_id": payment.ID,
		"details":   payment,
	})
}

// Release hands the held funds to the recipient.
func (h *Handler) Release(c *fiber.Ctx) error {
	result, err := h.service.Release(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{
		"status":          "SUCCESS",
		"message":         "Payment released to " + result.Payment.Recipient + ". Sender trust boosted!",
		"new_trust_score": result.TrustScore,
	})
}

// Refund returns locked funds to the sender.
func (h *Handler) Refund(c *fiber.Ctx) error {
	username, _ := c.Locals("username").(string)
	payment, err := h.service.Refund(c.UserContext(), c.Params("id"), username)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{
		"status":  "SUCCESS",
		"message": "Escrow refunded.",
		"details": payment,
	})
}

// Status reports one escrow so the recipient can decide whether to ship.
func (h *Handler) Status(c *fiber.Ctx) error {
	payment, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{
		"receiver_id":   payment.Recipient,
		"amount":        payment.Amount,
		"status":        payment.Status,
		"can_ship_item": payment.CanShipItem(),
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, identity.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotLocked):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotSender):
		return fiber.NewError(http.StatusForbidden, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
