package privacycash

import (
	"errors"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gofiber/fiber/v2"
)

// Handler exposes the simulated funding ledger over HTTP. The wallet public
// key set by the auth middleware selects the session.
type Handler struct {
	registry *Registry
}

// NewHandler constructs a ledger handler.
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

type amountRequest struct {
	AmountSOL float64 `json:"amount_sol"`
}

type withdrawRequest struct {
	AmountSOL float64 `json:"amount_sol"`
	Recipient string  `json:"recipient"`
}

type fundVaultRequest struct {
	AmountSOL   float64 `json:"amount_sol"`
	Destination string  `json:"destination"`
}

func (h *Handler) session(c *fiber.Ctx) (*Service, error) {
	pubkey, _ := c.Locals("wallet_pubkey").(string)
	if pubkey == "" {
		return nil, fiber.NewError(http.StatusUnauthorized, "missing wallet session")
	}
	return h.registry.For(pubkey), nil
}

// Initialize walks the simulated handshake for the caller's session.
func (h *Handler) Initialize(c *fiber.Ctx) error {
	svc, err := h.session(c)
	if err != nil {
		return err
	}
	if err := svc.Initialize(c.UserContext()); err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":           svc.Status(),
		"balance_lamports": svc.Balance(),
	})
}

// Balance returns the last loaded simulated balance and status.
func (h *Handler) Balance(c *fiber.Ctx) error {
	svc, err := h.session(c)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":           svc.Status(),
		"balance_lamports": svc.Balance(),
	})
}

// Refresh re-reads the persisted balance and the real wallet balance.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	svc, err := h.session(c)
	if err != nil {
		return err
	}
	simulated, wallet, err := svc.RefreshBalance(c.UserContext())
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"balance_lamports":        simulated,
		"wallet_balance_lamports": wallet,
	})
}

// Deposit credits the simulated balance.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	svc, err := h.session(c)
	if err != nil {
		return err
	}
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	txID, balance, err := svc.Deposit(c.UserContext(), req.AmountSOL)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_id":   txID,
		"balance_lamports": balance,
	})
}

// Withdraw debits the simulated balance, applying the withdrawal fee.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	svc, err := h.session(c)
	if err != nil {
		return err
	}
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	result, err := svc.Withdraw(c.UserContext(), req.AmountSOL, req.Recipient)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_id":      result.TransactionID,
		"net_amount_lamports": result.NetAmount,
		"fee_lamports":        result.Fee,
		"balance_lamports":    svc.Balance(),
	})
}

// FundVault performs the real transfer and mirrors it on the simulated balance.
func (h *Handler) FundVault(c *fiber.Ctx) error {
	svc, err := h.session(c)
	if err != nil {
		return err
	}
	var req fundVaultRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	destination, err := solana.PublicKeyFromBase58(req.Destination)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid destination address")
	}
	sig, mirrored, err := svc.FundVault(c.UserContext(), req.AmountSOL, destination)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"signature":        sig.String(),
		"mirrored":         mirrored,
		"balance_lamports": svc.Balance(),
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrWalletNotConnected):
		return fiber.NewError(http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
