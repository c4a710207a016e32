package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the sign-in-with-wallet endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an auth handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type challengeRequest struct {
	Pubkey string `json:"pubkey"`
}

type loginRequest struct {
	Pubkey    string `json:"pubkey"`
	Signature string `json:"signature"`
}

// Challenge issues the message the wallet must sign.
func (h *Handler) Challenge(c *fiber.Ctx) error {
	var req challengeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	message, err := h.service.Challenge(c.UserContext(), req.Pubkey)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": message})
}

// Login exchanges a signed challenge for a session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	session, err := h.service.Login(c.UserContext(), req.Pubkey, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, ErrChallengeNotFound), errors.Is(err, ErrInvalidSignature):
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	return c.Status(http.StatusOK).JSON(session)
}
