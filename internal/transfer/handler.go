package transfer

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/guard-pay/guard_pay/internal/identity"
)

// Handler exposes the transfer screening endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a transfer handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type submitRequest struct {
	SenderUsername string  `json:"sender_username"`
	RecipientUPI   string  `json:"recipient_upi"`
	Amount         float64 `json:"amount"`
	IdempotencyKey string  `json:"idempotency_key"`
}

// Submit screens a transfer request and returns the decision.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	// Authenticated callers may only submit on their own behalf.
	if username, _ := c.Locals("username").(string); username != "" && req.SenderUsername != username {
		return fiber.NewError(http.StatusForbidden, "sender does not match authenticated user")
	}

	res, err := h.service.Submit(c.UserContext(), SubmitInput{
		Sender:         req.SenderUsername,
		Recipient:      req.RecipientUPI,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "user not found")
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrMissingKey):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrInFlight):
			return fiber.NewError(http.StatusConflict, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	body := fiber.Map{
		"status":     res.Status,
		"message":    res.Message,
		"latency_ms": res.LatencyMS,
	}
	switch res.Status {
	case StatusSuccess, StatusDenied:
		body["risk_score"] = res.RiskScore
		body["applied_threshold"] = res.AppliedThreshold
		body["risk_factors"] = res.RiskFactors
		body["current_trust"] = res.TrustScore
	case StatusDuplicate:
		body["original_state"] = res.OriginalState
	case StatusLimitExceeded:
		body["limit_lifts_at"] = res.LimitLiftsAt
		body["policy"] = "New User Cooling-Off Period"
	}

	return c.Status(http.StatusOK).JSON(body)
}
