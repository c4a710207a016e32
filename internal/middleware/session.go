package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cloakedagent/cloaked-backend/internal/auth"
	"github.com/cloakedagent/cloaked-backend/internal/config"
)

// WalletPubkeyKey is the locals key holding the authenticated wallet pubkey.
const WalletPubkeyKey = "wallet_pubkey"

// WalletSession validates the bearer session token and exposes the wallet
// public key to downstream handlers.
func WalletSession(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}

		token := strings.TrimSpace(authz[len("Bearer "):])
		claims, err := auth.VerifySessionToken(token, []byte(cfg.JWTSecret))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid session token")
		}
		if claims.Subject == "" {
			return fiber.NewError(http.StatusUnauthorized, "invalid session token")
		}

		c.Locals(WalletPubkeyKey, claims.Subject)
		return c.Next()
	}
}
