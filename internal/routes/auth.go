package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cloakedagent/cloaked-backend/internal/auth"
)

// RegisterAuthRoutes mounts the sign-in-with-wallet endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimit fiber.Handler) {
	group := r.Group("/auth")

	group.Post("/challenge", rateLimit, h.Challenge)
	group.Post("/login", h.Login)
}
