package privacycash

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/cloakedagent/cloaked-backend/internal/chain"
)

// Delays configures the simulated latency applied by ledger operations.
// Zero values skip the wait entirely, which is what tests use.
type Delays struct {
	Signature   time.Duration
	Initialize  time.Duration
	Transaction time.Duration
	Refresh     time.Duration
}

// Service emulates the balance and transaction behavior of the shielded
// funding integration without any cryptographic or network backing, while
// presenting the interface a real integration would need. One instance is
// constructed per wallet session; mutations of the stored balance are
// serialized behind a mutex so sequential and concurrent callers both
// observe consistent read-modify-write updates.
type Service struct {
	store  Store
	wallet chain.Wallet
	conn   chain.Connection
	delays Delays
	logger *slog.Logger

	mu      sync.Mutex
	status  Status
	balance uint64
}

// NewService builds a ledger service over the injected store and collaborators.
func NewService(store Store, wallet chain.Wallet, conn chain.Connection, delays Delays, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		wallet: wallet,
		conn:   conn,
		delays: delays,
		logger: logger,
		status: StatusIdle,
	}
}

// Status returns the current initialization status.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Balance returns the last loaded simulated balance in lamports.
func (s *Service) Balance() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// Initialize walks the simulated handshake: idle → awaiting-signature →
// initializing → ready, then loads the persisted balance. Calling it again
// while a transition is underway, or once ready, is a no-op.
func (s *Service) Initialize(ctx context.Context) error {
	if s.wallet == nil || !s.wallet.Connected() {
		return ErrWalletNotConnected
	}

	s.mu.Lock()
	if s.status != StatusIdle {
		s.mu.Unlock()
		return nil
	}
	s.status = StatusAwaitingSignature
	s.mu.Unlock()

	if err := s.pause(ctx, s.delays.Signature); err != nil {
		return err
	}

	s.mu.Lock()
	s.status = StatusInitializing
	s.mu.Unlock()

	if err := s.pause(ctx, s.delays.Initialize); err != nil {
		return err
	}

	balance := s.loadOrSeed(ctx)

	s.mu.Lock()
	s.balance = balance
	s.status = StatusReady
	s.mu.Unlock()

	return nil
}

// RefreshBalance re-reads the persisted balance after a simulated network
// delay and, when a connection is available, also queries the real wallet
// balance. A failed wallet query is cosmetic and never fails the refresh.
func (s *Service) RefreshBalance(ctx context.Context) (simulated uint64, wallet uint64, err error) {
	if err := s.pause(ctx, s.delays.Refresh); err != nil {
		return 0, 0, err
	}

	s.mu.Lock()
	simulated = s.loadOrSeedLocked(ctx)
	s.balance = simulated
	s.mu.Unlock()

	if s.conn != nil && s.wallet != nil && s.wallet.Connected() {
		lamports, balErr := s.conn.GetBalance(ctx, s.wallet.PublicKey())
		if balErr != nil {
			s.logger.Warn("wallet balance refresh failed", "error", balErr)
		} else {
			wallet = lamports
		}
	}

	return simulated, wallet, nil
}

// Deposit increases the stored balance after a simulated transaction delay
// and returns a synthetic transaction identifier.
func (s *Service) Deposit(ctx context.Context, amountSOL float64) (txID string, newBalance uint64, err error) {
	if s.wallet == nil || !s.wallet.Connected() {
		return "", 0, ErrWalletNotConnected
	}
	if amountSOL <= 0 {
		return "", 0, ErrInvalidAmount
	}

	if err := s.pause(ctx, s.delays.Transaction); err != nil {
		return "", 0, err
	}

	lamports := ToLamports(amountSOL)

	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.loadOrSeedLocked(ctx)
	newBalance = balance + lamports
	if err := s.store.Save(ctx, newBalance); err != nil {
		return "", 0, err
	}
	s.balance = newBalance

	return newSimulatedTxID(), newBalance, nil
}

// Withdraw deducts the full requested amount from the stored balance and
// returns the net amount after the 0.35% fee. The recipient is accepted for
// interface compatibility with the real integration and has no effect on the
// simulated balance. Failure leaves the stored balance unchanged.
func (s *Service) Withdraw(ctx context.Context, amountSOL float64, recipient string) (WithdrawalResult, error) {
	_ = recipient

	if s.wallet == nil || !s.wallet.Connected() {
		return WithdrawalResult{}, ErrWalletNotConnected
	}
	if amountSOL <= 0 {
		return WithdrawalResult{}, ErrInvalidAmount
	}

	if err := s.pause(ctx, s.delays.Transaction); err != nil {
		return WithdrawalResult{}, err
	}

	lamports := ToLamports(amountSOL)

	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.loadOrSeedLocked(ctx)
	if lamports > balance {
		return WithdrawalResult{}, ErrInsufficientBalance
	}

	fee := WithdrawalFee(lamports)
	newBalance := balance - lamports
	if err := s.store.Save(ctx, newBalance); err != nil {
		return WithdrawalResult{}, err
	}
	s.balance = newBalance

	return WithdrawalResult{
		TransactionID: newSimulatedTxID(),
		NetAmount:     lamports - fee,
		Fee:           fee,
	}, nil
}

// FundVault performs a real balance-transferring transaction to the
// destination via the wallet and connection collaborators, then mirrors the
// same amount as a deduction against the simulated balance. The real
// transfer is authoritative; the mirror is cosmetic and is skipped when the
// amount exceeds the simulated balance or the store write fails.
func (s *Service) FundVault(ctx context.Context, amountSOL float64, destination solana.PublicKey) (sig solana.Signature, mirrored bool, err error) {
	if s.wallet == nil || !s.wallet.Connected() {
		return solana.Signature{}, false, ErrWalletNotConnected
	}
	if amountSOL <= 0 {
		return solana.Signature{}, false, ErrInvalidAmount
	}
	if s.conn == nil {
		return solana.Signature{}, false, fmt.Errorf("no rpc connection available")
	}

	lamports := ToLamports(amountSOL)
	payer := s.wallet.PublicKey()

	blockhash, err := s.conn.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, false, err
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(lamports, payer, destination).Build(),
		},
		blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return solana.Signature{}, false, fmt.Errorf("build transfer: %w", err)
	}

	if err := s.wallet.SignTransaction(ctx, tx); err != nil {
		return solana.Signature{}, false, err
	}

	sig, err = s.conn.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, false, err
	}
	if err := s.conn.ConfirmTransaction(ctx, sig); err != nil {
		return solana.Signature{}, false, err
	}

	mirrored = s.mirrorDeduction(ctx, lamports)

	return sig, mirrored, nil
}

func (s *Service) mirrorDeduction(ctx context.Context, lamports uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.loadOrSeedLocked(ctx)
	if lamports > balance {
		return false
	}
	newBalance := balance - lamports
	if err := s.store.Save(ctx, newBalance); err != nil {
		s.logger.Warn("simulated balance mirror failed", "error", err)
		return false
	}
	s.balance = newBalance
	return true
}

// loadOrSeed reads the stored balance, writing the seed value back on first
// use. Read failures fall back to the seed so the handshake always completes.
func (s *Service) loadOrSeed(ctx context.Context) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadOrSeedLocked(ctx)
}

func (s *Service) loadOrSeedLocked(ctx context.Context) uint64 {
	lamports, found, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn("balance load failed, using seed", "error", err)
		return SeedLamports
	}
	if !found {
		if err := s.store.Save(ctx, SeedLamports); err != nil {
			s.logger.Warn("seed write failed", "error", err)
		}
		return SeedLamports
	}
	return lamports
}

func (s *Service) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ToLamports converts a SOL amount to lamports, rounding to the nearest
// lamport to avoid float artifacts on decimal inputs.
func ToLamports(amountSOL float64) uint64 {
	return uint64(math.Round(amountSOL * LamportsPerSOL))
}
