package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/guard-pay/guard_pay/internal/identity"
)

// Handler exposes the signup and login endpoints.
type Handler struct {
	users  *identity.Service
	tokens *TokenService
}

// NewHandler constructs an auth handler.
func NewHandler(users *identity.Service, tokens *TokenService) *Handler {
	return &Handler{users: users, tokens: tokens}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup registers a new user with the starting trust score.
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.Register(c.UserContext(), identity.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, identity.ErrExists) {
			return fiber.NewError(http.StatusBadRequest, "username already taken")
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":     "User " + user.Username + " created successfully!",
		"trust_score": user.TrustScore,
	})
}

// Login verifies credentials and issues a session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.Authenticate(c.UserContext(), identity.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrNotFound):
			return fiber.NewError(http.StatusNotFound, "user not found")
		case errors.Is(err, identity.ErrInvalidPassword):
			return fiber.NewError(http.StatusUnauthorized, "invalid password")
		default:
			return fiber.NewError(http.StatusInternalServerError, err.Error())
		}
	}

	token, err := h.tokens.Issue(user.Username)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "issue token")
	}

	return c.JSON(fiber.Map{
		"status":      "Login Successful",
		"username":    user.Username,
		"token":       token,
		"trust_score": user.TrustScore,
	})
}
