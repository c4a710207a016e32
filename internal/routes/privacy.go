package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cloakedagent/cloaked-backend/internal/privacycash"
)

// RegisterPrivacyRoutes mounts the simulated funding ledger endpoints.
func RegisterPrivacyRoutes(r fiber.Router, h *privacycash.Handler) {
	group := r.Group("/privacy")

	group.Post("/initialize", h.Initialize)
	group.Get("/balance", h.Balance)
	group.Post("/refresh", h.Refresh)
	group.Post("/deposit", h.Deposit)
	group.Post("/withdraw", h.Withdraw)
	group.Post("/fund-vault", h.FundVault)
}
