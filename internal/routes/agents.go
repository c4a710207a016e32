package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cloakedagent/cloaked-backend/internal/agent"
)

// RegisterAgentRoutes mounts the agent vault endpoints.
func RegisterAgentRoutes(r fiber.Router, h *agent.Handler) {
	group := r.Group("/agents")

	group.Post("/", h.Create)
	group.Get("/", h.List)
	group.Get("/:agentId", h.Get)
	group.Post("/:agentId/deposit", h.Deposit)
	group.Post("/:agentId/spend", h.Spend)
	group.Post("/:agentId/withdraw", h.Withdraw)
	group.Post("/:agentId/freeze", h.Freeze)
	group.Post("/:agentId/unfreeze", h.Unfreeze)
	group.Patch("/:agentId/constraints", h.UpdateConstraints)
	group.Delete("/:agentId", h.Close)
}
