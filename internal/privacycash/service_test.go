package privacycash

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/cloakedagent/cloaked-backend/internal/logging"
)

type fakeWallet struct {
	pubkey    solana.PublicKey
	connected bool
	signed    int
}

func (w *fakeWallet) PublicKey() solana.PublicKey { return w.pubkey }
func (w *fakeWallet) Connected() bool             { return w.connected }
func (w *fakeWallet) SignTransaction(_ context.Context, _ *solana.Transaction) error {
	w.signed++
	return nil
}

type fakeConnection struct {
	walletBalance uint64
	sent          []*solana.Transaction
	sig           solana.Signature
}

func (c *fakeConnection) GetBalance(_ context.Context, _ solana.PublicKey) (uint64, error) {
	return c.walletBalance, nil
}

func (c *fakeConnection) GetLatestBlockhash(_ context.Context) (solana.Hash, error) {
	return solana.Hash{}, nil
}

func (c *fakeConnection) SendTransaction(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	c.sent = append(c.sent, tx)
	return c.sig, nil
}

func (c *fakeConnection) ConfirmTransaction(_ context.Context, _ solana.Signature) error {
	return nil
}

type failingStore struct {
	*MemoryStore
	saveErr error
}

func (s *failingStore) Save(ctx context.Context, lamports uint64) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.MemoryStore.Save(ctx, lamports)
}

func newTestService(store Store) (*Service, *fakeConnection) {
	wallet := &fakeWallet{pubkey: solana.PublicKey{1}, connected: true}
	conn := &fakeConnection{walletBalance: 3 * LamportsPerSOL, sig: solana.Signature{7}}
	return NewService(store, wallet, conn, Delays{}, logging.Discard()), conn
}

func TestInitializeSeedsBalance(t *testing.T) {
	svc, _ := newTestService(NewMemoryStore())
	ctx := context.Background()

	if got := svc.Status(); got != StatusIdle {
		t.Fatalf("expected idle status, got %s", got)
	}

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if got := svc.Status(); got != StatusReady {
		t.Fatalf("expected ready status, got %s", got)
	}
	if got := svc.Balance(); got != SeedLamports {
		t.Fatalf("expected seed balance %d, got %d", SeedLamports, got)
	}
}

func TestInitializeRequiresWallet(t *testing.T) {
	svc := NewService(NewMemoryStore(), &fakeWallet{connected: false}, nil, Delays{}, logging.Discard())

	err := svc.Initialize(context.Background())
	if !errors.Is(err, ErrWalletNotConnected) {
		t.Fatalf("expected wallet not connected, got %v", err)
	}
	if got := svc.Status(); got != StatusIdle {
		t.Fatalf("status should stay idle, got %s", got)
	}
}

func TestInitializeIdempotent(t *testing.T) {
	svc, _ := newTestService(NewMemoryStore())
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	before := svc.Balance()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	if got := svc.Balance(); got != before {
		t.Fatalf("balance changed on repeat initialize: %d != %d", got, before)
	}
	if got := svc.Status(); got != StatusReady {
		t.Fatalf("status should remain ready, got %s", got)
	}
}

func TestInitializeConcurrentCalls(t *testing.T) {
	store := NewMemoryStore()
	wallet := &fakeWallet{pubkey: solana.PublicKey{1}, connected: true}
	svc := NewService(store, wallet, nil, Delays{Signature: 5 * time.Millisecond, Initialize: 5 * time.Millisecond}, logging.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.Initialize(context.Background()); err != nil {
				t.Errorf("initialize: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := svc.Status(); got != StatusReady {
		t.Fatalf("expected ready after concurrent initialize, got %s", got)
	}
	if got := svc.Balance(); got != SeedLamports {
		t.Fatalf("expected seed balance, got %d", got)
	}
}

func TestDepositIncreasesBalance(t *testing.T) {
	svc, _ := newTestService(NewMemoryStore())
	ctx := context.Background()

	txID, balance, err := svc.Deposit(ctx, 2.0)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if balance != 2_500_000_000 {
		t.Fatalf("expected balance 2500000000, got %d", balance)
	}
	if !strings.HasPrefix(txID, SimulatedTxPrefix) {
		t.Fatalf("expected simulated tx prefix, got %s", txID)
	}

	simulated, _, err := svc.RefreshBalance(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if simulated != 2_500_000_000 {
		t.Fatalf("refresh disagrees with deposit: %d", simulated)
	}
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	svc, _ := newTestService(NewMemoryStore())

	for _, amount := range []float64{0, -1.5} {
		if _, _, err := svc.Deposit(context.Background(), amount); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("amount %v: expected invalid amount, got %v", amount, err)
		}
	}
}

func TestWithdrawDebitsFullAmountAndComputesFee(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Save(context.Background(), 2_500_000_000); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	svc, _ := newTestService(store)

	res, err := svc.Withdraw(context.Background(), 1.0, "BobRecipient11111111111111111111")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if res.Fee != 3_500_000 {
		t.Fatalf("expected fee 3500000, got %d", res.Fee)
	}
	if res.NetAmount != 996_500_000 {
		t.Fatalf("expected net 996500000, got %d", res.NetAmount)
	}
	if !strings.HasPrefix(res.TransactionID, SimulatedTxPrefix) {
		t.Fatalf("expected simulated tx prefix, got %s", res.TransactionID)
	}
	if got := svc.Balance(); got != 1_500_000_000 {
		t.Fatalf("expected balance 1500000000, got %d", got)
	}
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	svc, _ := newTestService(NewMemoryStore())
	ctx := context.Background()

	res, err := svc.Withdraw(ctx, 1.0, "recipient")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if res.TransactionID != "" {
		t.Fatalf("failed withdrawal must not produce a tx id, got %s", res.TransactionID)
	}

	simulated, _, err := svc.RefreshBalance(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if simulated != SeedLamports {
		t.Fatalf("balance mutated on failed withdrawal: %d", simulated)
	}
}

func TestDepositWithdrawRoundTripLosesFee(t *testing.T) {
	svc, _ := newTestService(NewMemoryStore())
	ctx := context.Background()

	if _, _, err := svc.Deposit(ctx, 0.1); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	res, err := svc.Withdraw(ctx, 0.1, "recipient")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	deposited := ToLamports(0.1)
	want := deposited - WithdrawalFee(deposited)
	if res.NetAmount != want {
		t.Fatalf("expected net %d, got %d", want, res.NetAmount)
	}
	if res.NetAmount >= deposited {
		t.Fatalf("net %d should be strictly less than deposited %d", res.NetAmount, deposited)
	}
}

func TestWithdrawSurfacesStoreFailure(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore()}
	if err := store.MemoryStore.Save(context.Background(), 2*LamportsPerSOL); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	svc, _ := newTestService(store)

	store.saveErr = errors.New("quota exceeded")
	if _, err := svc.Withdraw(context.Background(), 1.0, "recipient"); err == nil {
		t.Fatal("expected store failure to surface")
	}

	store.saveErr = nil
	simulated, _, err := svc.RefreshBalance(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if simulated != 2*LamportsPerSOL {
		t.Fatalf("balance mutated despite failed save: %d", simulated)
	}
}

func TestRefreshBalanceReadsStoreAndWallet(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Save(context.Background(), 777); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	svc, conn := newTestService(store)

	simulated, wallet, err := svc.RefreshBalance(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if simulated != 777 {
		t.Fatalf("expected simulated 777, got %d", simulated)
	}
	if wallet != conn.walletBalance {
		t.Fatalf("expected wallet balance %d, got %d", conn.walletBalance, wallet)
	}
}

func TestFundVaultTransfersAndMirrors(t *testing.T) {
	svc, conn := newTestService(NewMemoryStore())
	ctx := context.Background()
	destination := solana.PublicKey{9}

	sig, mirrored, err := svc.FundVault(ctx, 0.2, destination)
	if err != nil {
		t.Fatalf("fund vault: %v", err)
	}
	if sig != conn.sig {
		t.Fatalf("expected signature %s, got %s", conn.sig, sig)
	}
	if !mirrored {
		t.Fatal("expected mirror deduction to apply")
	}
	if len(conn.sent) != 1 {
		t.Fatalf("expected one submitted transaction, got %d", len(conn.sent))
	}
	if got := svc.Balance(); got != SeedLamports-ToLamports(0.2) {
		t.Fatalf("expected mirrored balance %d, got %d", SeedLamports-ToLamports(0.2), got)
	}
}

func TestFundVaultMirrorSkippedWhenExceedsBalance(t *testing.T) {
	svc, _ := newTestService(NewMemoryStore())
	ctx := context.Background()

	// 1 SOL exceeds the 0.5 SOL seed; the real transfer still succeeds.
	_, mirrored, err := svc.FundVault(ctx, 1.0, solana.PublicKey{9})
	if err != nil {
		t.Fatalf("fund vault: %v", err)
	}
	if mirrored {
		t.Fatal("mirror should be skipped when amount exceeds simulated balance")
	}
	if got := svc.Balance(); got != SeedLamports {
		t.Fatalf("simulated balance should be unchanged, got %d", got)
	}
}

func TestConcurrentDepositsDoNotLoseUpdates(t *testing.T) {
	svc, _ := newTestService(NewMemoryStore())
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := svc.Deposit(ctx, 0.01); err != nil {
				t.Errorf("deposit: %v", err)
			}
		}()
	}
	wg.Wait()

	want := uint64(SeedLamports) + uint64(workers)*ToLamports(0.01)
	simulated, _, err := svc.RefreshBalance(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if simulated != want {
		t.Fatalf("expected %d after concurrent deposits, got %d", want, simulated)
	}
}

func TestSimulatedTxIDFormat(t *testing.T) {
	id := newSimulatedTxID()
	if !IsSimulatedTxID(id) {
		t.Fatalf("id %s missing prefix", id)
	}
	if len(id) != len(SimulatedTxPrefix)+simTxRandomLen {
		t.Fatalf("unexpected id length %d", len(id))
	}
	for _, r := range id[len(SimulatedTxPrefix):] {
		if !strings.ContainsRune(base58Alphabet, r) {
			t.Fatalf("id contains non-base58 rune %q", r)
		}
	}
}
