package agent

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes agent HTTP endpoints. The wallet public key set by the
// auth middleware identifies the caller for ownership and delegation checks.
type Handler struct {
	service *Service
}

// NewHandler builds an agent HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Delegate   string `json:"delegate"`
	MaxPerTx   uint64 `json:"max_per_tx"`
	DailyLimit uint64 `json:"daily_limit"`
	TotalLimit uint64 `json:"total_limit"`
	ExpiresAt  int64  `json:"expires_at"`
}

type amountRequest struct {
	AmountLamports uint64 `json:"amount_lamports"`
}

type constraintsRequest struct {
	MaxPerTx   *uint64 `json:"max_per_tx"`
	DailyLimit *uint64 `json:"daily_limit"`
	TotalLimit *uint64 `json:"total_limit"`
	ExpiresAt  *int64  `json:"expires_at"`
}

type agentResponse struct {
	ID            string    `json:"id"`
	Owner         string    `json:"owner"`
	Delegate      string    `json:"delegate"`
	MaxPerTx      uint64    `json:"max_per_tx"`
	DailyLimit    uint64    `json:"daily_limit"`
	TotalLimit    uint64    `json:"total_limit"`
	ExpiresAt     int64     `json:"expires_at"`
	Frozen        bool      `json:"frozen"`
	TotalSpent    uint64    `json:"total_spent"`
	DailySpent    uint64    `json:"daily_spent"`
	VaultLamports uint64    `json:"vault_lamports"`
	CreatedAt     time.Time `json:"created_at"`
}

func caller(c *fiber.Ctx) (string, error) {
	pubkey, _ := c.Locals("wallet_pubkey").(string)
	if pubkey == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "missing wallet session")
	}
	return pubkey, nil
}

// Create provisions an agent owned by the caller.
func (h *Handler) Create(c *fiber.Ctx) error {
	owner, err := caller(c)
	if err != nil {
		return err
	}
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	agent, err := h.service.Create(c.UserContext(), CreateInput{
		Owner:      owner,
		Delegate:   req.Delegate,
		MaxPerTx:   req.MaxPerTx,
		DailyLimit: req.DailyLimit,
		TotalLimit: req.TotalLimit,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(agent))
}

// List returns the caller's agents.
func (h *Handler) List(c *fiber.Ctx) error {
	owner, err := caller(c)
	if err != nil {
		return err
	}
	agents, err := h.service.ListByOwner(c.UserContext(), owner)
	if err != nil {
		return mapError(err)
	}
	out := make([]agentResponse, 0, len(agents))
	for _, a := range agents {
		out = append(out, toResponse(a))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Get returns one agent.
func (h *Handler) Get(c *fiber.Ctx) error {
	agent, err := h.service.Get(c.UserContext(), c.Params("agentId"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(agent))
}

// Deposit credits the agent vault.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	agent, err := h.service.Deposit(c.UserContext(), c.Params("agentId"), req.AmountLamports)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(agent))
}

// Spend performs a delegate spend from the vault.
func (h *Handler) Spend(c *fiber.Ctx) error {
	delegate, err := caller(c)
	if err != nil {
		return err
	}
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.Spend(c.UserContext(), c.Params("agentId"), delegate, req.AmountLamports)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"vault_lamports": res.VaultLamports,
		"fee_reimbursed": res.FeeReimbursed,
	})
}

// Withdraw moves vault funds back to the owner.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	owner, err := caller(c)
	if err != nil {
		return err
	}
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	agent, err := h.service.Withdraw(c.UserContext(), c.Params("agentId"), owner, req.AmountLamports)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(agent))
}

// Freeze emergency-stops the agent.
func (h *Handler) Freeze(c *fiber.Ctx) error {
	return h.setFrozen(c, true)
}

// Unfreeze re-enables the agent.
func (h *Handler) Unfreeze(c *fiber.Ctx) error {
	return h.setFrozen(c, false)
}

func (h *Handler) setFrozen(c *fiber.Ctx, frozen bool) error {
	owner, err := caller(c)
	if err != nil {
		return err
	}
	var agent Agent
	if frozen {
		agent, err = h.service.Freeze(c.UserContext(), c.Params("agentId"), owner)
	} else {
		agent, err = h.service.Unfreeze(c.UserContext(), c.Params("agentId"), owner)
	}
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(agent))
}

// UpdateConstraints changes spending constraints.
func (h *Handler) UpdateConstraints(c *fiber.Ctx) error {
	owner, err := caller(c)
	if err != nil {
		return err
	}
	var req constraintsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	agent, err := h.service.UpdateConstraints(c.UserContext(), c.Params("agentId"), owner, ConstraintsUpdate{
		MaxPerTx:   req.MaxPerTx,
		DailyLimit: req.DailyLimit,
		TotalLimit: req.TotalLimit,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(agent))
}

// Close deletes the agent and reports the returned vault balance.
func (h *Handler) Close(c *fiber.Ctx) error {
	owner, err := caller(c)
	if err != nil {
		return err
	}
	returned, err := h.service.Close(c.UserContext(), c.Params("agentId"), owner)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"returned_lamports": returned})
}

func toResponse(a Agent) agentResponse {
	return agentResponse{
		ID:            a.ID,
		Owner:         a.Owner,
		Delegate:      a.Delegate,
		MaxPerTx:      a.MaxPerTx,
		DailyLimit:    a.DailyLimit,
		TotalLimit:    a.TotalLimit,
		ExpiresAt:     a.ExpiresAt,
		Frozen:        a.Frozen,
		TotalSpent:    a.TotalSpent,
		DailySpent:    a.DailySpent,
		VaultLamports: a.VaultLamports,
		CreatedAt:     a.CreatedAt,
	}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrNotDelegate):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAgentFrozen):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrAgentExpired),
		errors.Is(err, ErrExceedsPerTxLimit),
		errors.Is(err, ErrExceedsDailyLimit),
		errors.Is(err, ErrExceedsTotalLimit),
		errors.Is(err, ErrInsufficientVault),
		errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
