package privacycash

import "errors"

// Status tracks the simulated handshake a session goes through before the
// ledger becomes usable. Transitions are strictly forward and driven only by
// Initialize; there is no error or failed terminal state.
type Status string

const (
	StatusIdle              Status = "idle"
	StatusAwaitingSignature Status = "awaiting-signature"
	StatusInitializing      Status = "initializing"
	StatusReady             Status = "ready"
)

const (
	// LamportsPerSOL is the number of lamports in one SOL.
	LamportsPerSOL = 1_000_000_000

	// SeedLamports is the balance a fresh profile starts with (0.5 SOL).
	SeedLamports = 500_000_000

	// Withdrawal fee: 35 basis points, floor-rounded.
	feeNumerator   = 35
	feeDenominator = 10_000
)

var (
	// ErrWalletNotConnected occurs when an operation requires a connected
	// wallet and none is available.
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrInsufficientBalance occurs when a withdrawal exceeds the stored
	// simulated balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount occurs when an operation receives a non-positive amount.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// WithdrawalResult captures the outcome of a simulated withdrawal.
type WithdrawalResult struct {
	TransactionID string
	NetAmount     uint64
	Fee           uint64
}

// WithdrawalFee computes the 0.35% floor-rounded fee on the requested lamports.
func WithdrawalFee(lamports uint64) uint64 {
	return lamports * feeNumerator / feeDenominator
}
