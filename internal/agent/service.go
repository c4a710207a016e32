package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cloakedagent/cloaked-backend/internal/notify"
)

// Service enforces agent spending policies against the vault balance,
// mirroring the on-chain program's rules for devnet demos. Policy checks and
// vault mutations go through a single mutex so read-modify-write sequences
// against the repository stay consistent.
type Service struct {
	mu       sync.Mutex
	repo     Repository
	notifier notify.Notifier
	now      func() time.Time
}

// NewService constructs an agent service. A nil clock defaults to time.Now.
func NewService(repo Repository, notifier notify.Notifier, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, notifier: notifier, now: now}
}

// CreateInput captures data required to provision an agent.
type CreateInput struct {
	Owner      string
	Delegate   string
	MaxPerTx   uint64
	DailyLimit uint64
	TotalLimit uint64
	ExpiresAt  int64
}

// Create provisions an agent with the given constraints.
func (s *Service) Create(ctx context.Context, input CreateInput) (Agent, error) {
	if input.Owner == "" {
		return Agent{}, fmt.Errorf("owner is required")
	}
	if input.Delegate == "" {
		return Agent{}, fmt.Errorf("delegate is required")
	}

	now := s.now().UTC()
	agent := Agent{
		ID:         uuid.New().String(),
		Owner:      input.Owner,
		Delegate:   input.Delegate,
		MaxPerTx:   input.MaxPerTx,
		DailyLimit: input.DailyLimit,
		TotalLimit: input.TotalLimit,
		ExpiresAt:  input.ExpiresAt,
		LastDay:    now.Unix() / secondsPerDay,
		CreatedAt:  now,
	}

	if err := s.repo.Create(ctx, agent); err != nil {
		return Agent{}, err
	}

	s.emit(ctx, notify.KindAgentCreated, agent.Owner, fmt.Sprintf("agent %s created for delegate %s", agent.ID, agent.Delegate))
	return agent, nil
}

// Get retrieves an agent by identifier.
func (s *Service) Get(ctx context.Context, id string) (Agent, error) {
	return s.repo.Get(ctx, id)
}

// ListByOwner retrieves all agents owned by the given public key.
func (s *Service) ListByOwner(ctx context.Context, owner string) ([]Agent, error) {
	return s.repo.ListByOwner(ctx, owner)
}

// Deposit credits the agent vault. Anyone may deposit.
func (s *Service) Deposit(ctx context.Context, id string, amount uint64) (Agent, error) {
	if amount == 0 {
		return Agent{}, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	agent, err := s.repo.Get(ctx, id)
	if err != nil {
		return Agent{}, err
	}
	agent.VaultLamports += amount
	if err := s.repo.Update(ctx, agent); err != nil {
		return Agent{}, err
	}
	return agent, nil
}

// Spend moves lamports out of the vault on behalf of the delegate, enforcing
// freeze, expiry, and limit constraints. The vault must also cover the fixed
// fee reimbursement. The daily counter resets when the unix day advances.
func (s *Service) Spend(ctx context.Context, id, delegate string, amount uint64) (SpendResult, error) {
	if amount == 0 {
		return SpendResult{}, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	agent, err := s.repo.Get(ctx, id)
	if err != nil {
		return SpendResult{}, err
	}
	if agent.Delegate != delegate {
		return SpendResult{}, ErrNotDelegate
	}
	if agent.Frozen {
		return SpendResult{}, ErrAgentFrozen
	}

	now := s.now()
	if agent.ExpiresAt > 0 && now.Unix() >= agent.ExpiresAt {
		return SpendResult{}, ErrAgentExpired
	}
	if agent.MaxPerTx > 0 && amount > agent.MaxPerTx {
		return SpendResult{}, ErrExceedsPerTxLimit
	}

	currentDay := now.Unix() / secondsPerDay
	if currentDay > agent.LastDay {
		agent.DailySpent = 0
		agent.LastDay = currentDay
	}

	if agent.DailyLimit > 0 && agent.DailySpent+amount > agent.DailyLimit {
		return SpendResult{}, ErrExceedsDailyLimit
	}
	if agent.TotalLimit > 0 && agent.TotalSpent+amount > agent.TotalLimit {
		return SpendResult{}, ErrExceedsTotalLimit
	}

	required := amount + SpendFeeReimbursement
	if agent.VaultLamports < required {
		return SpendResult{}, ErrInsufficientVault
	}

	agent.DailySpent += amount
	agent.TotalSpent += amount
	agent.VaultLamports -= required

	if err := s.repo.Update(ctx, agent); err != nil {
		return SpendResult{}, err
	}

	s.emit(ctx, notify.KindVaultSpend, agent.Owner, fmt.Sprintf("agent %s spent %d lamports", agent.ID, amount))
	return SpendResult{VaultLamports: agent.VaultLamports, FeeReimbursed: SpendFeeReimbursement}, nil
}

// Withdraw moves lamports from the vault to the owner. It ignores spending
// constraints and works while the agent is frozen or expired.
func (s *Service) Withdraw(ctx context.Context, id, owner string, amount uint64) (Agent, error) {
	if amount == 0 {
		return Agent{}, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	agent, err := s.repo.Get(ctx, id)
	if err != nil {
		return Agent{}, err
	}
	if agent.Owner != owner {
		return Agent{}, ErrNotOwner
	}
	if agent.VaultLamports < amount {
		return Agent{}, ErrInsufficientVault
	}

	agent.VaultLamports -= amount
	if err := s.repo.Update(ctx, agent); err != nil {
		return Agent{}, err
	}
	return agent, nil
}

// Freeze emergency-stops the agent. Owner only.
func (s *Service) Freeze(ctx context.Context, id, owner string) (Agent, error) {
	return s.setFrozen(ctx, id, owner, true)
}

// Unfreeze re-enables a frozen agent. Owner only.
func (s *Service) Unfreeze(ctx context.Context, id, owner string) (Agent, error) {
	return s.setFrozen(ctx, id, owner, false)
}

func (s *Service) setFrozen(ctx context.Context, id, owner string, frozen bool) (Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent, err := s.repo.Get(ctx, id)
	if err != nil {
		return Agent{}, err
	}
	if agent.Owner != owner {
		return Agent{}, ErrNotOwner
	}

	agent.Frozen = frozen
	if err := s.repo.Update(ctx, agent); err != nil {
		return Agent{}, err
	}

	kind := notify.KindAgentFrozen
	if !frozen {
		kind = notify.KindAgentUnfrozen
	}
	s.emit(ctx, kind, agent.Owner, fmt.Sprintf("agent %s", agent.ID))
	return agent, nil
}

// UpdateConstraints changes the provided constraint fields. Owner only.
func (s *Service) UpdateConstraints(ctx context.Context, id, owner string, update ConstraintsUpdate) (Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent, err := s.repo.Get(ctx, id)
	if err != nil {
		return Agent{}, err
	}
	if agent.Owner != owner {
		return Agent{}, ErrNotOwner
	}

	if update.MaxPerTx != nil {
		agent.MaxPerTx = *update.MaxPerTx
	}
	if update.DailyLimit != nil {
		agent.DailyLimit = *update.DailyLimit
	}
	if update.TotalLimit != nil {
		agent.TotalLimit = *update.TotalLimit
	}
	if update.ExpiresAt != nil {
		agent.ExpiresAt = *update.ExpiresAt
	}

	if err := s.repo.Update(ctx, agent); err != nil {
		return Agent{}, err
	}
	return agent, nil
}

// Close deletes the agent and returns the remaining vault balance to the
// owner. Owner only.
func (s *Service) Close(ctx context.Context, id, owner string) (returned uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	agent, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if agent.Owner != owner {
		return 0, ErrNotOwner
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return 0, err
	}

	s.emit(ctx, notify.KindAgentClosed, agent.Owner, fmt.Sprintf("agent %s closed, %d lamports returned", agent.ID, agent.VaultLamports))
	return agent.VaultLamports, nil
}

func (s *Service) emit(ctx context.Context, kind, destination, body string) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notify.Event{Kind: kind, Destination: destination, Body: body})
}
