package agent

import (
	"errors"
	"time"
)

const (
	// SpendFeeReimbursement is deducted from the vault on every spend to
	// reimburse the fee payer (~0.00001 SOL).
	SpendFeeReimbursement = 10_000

	secondsPerDay = 86_400
)

var (
	ErrNotFound          = errors.New("agent not found")
	ErrNotOwner          = errors.New("caller is not the agent owner")
	ErrNotDelegate       = errors.New("caller is not the agent delegate")
	ErrAgentFrozen       = errors.New("agent is frozen")
	ErrAgentExpired      = errors.New("agent has expired")
	ErrExceedsPerTxLimit = errors.New("amount exceeds per-transaction limit")
	ErrExceedsDailyLimit = errors.New("amount exceeds daily limit")
	ErrExceedsTotalLimit = errors.New("amount exceeds total limit")
	ErrInsufficientVault = errors.New("insufficient vault balance")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Agent is the devnet mirror of the on-chain agent account: a spending
// delegate constrained by per-transaction, daily, and total limits, with an
// owner holding an emergency stop. Zero limits mean unlimited; a zero
// ExpiresAt means the agent never expires.
type Agent struct {
	ID       string
	Owner    string
	Delegate string

	MaxPerTx   uint64
	DailyLimit uint64
	TotalLimit uint64
	ExpiresAt  int64

	Frozen     bool
	TotalSpent uint64
	DailySpent uint64
	LastDay    int64

	VaultLamports uint64
	CreatedAt     time.Time
}

// SpendResult captures the outcome of a delegate spend.
type SpendResult struct {
	VaultLamports uint64
	FeeReimbursed uint64
}

// ConstraintsUpdate carries optional constraint changes; nil fields are left
// untouched.
type ConstraintsUpdate struct {
	MaxPerTx   *uint64
	DailyLimit *uint64
	TotalLimit *uint64
	ExpiresAt  *int64
}
