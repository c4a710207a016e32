package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Connection is the capability surface required from an RPC endpoint:
// balance queries, blockhash retrieval, submission, and confirmation.
type Connection interface {
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, sig solana.Signature) error
}

const confirmPollInterval = 500 * time.Millisecond

// RPCConnection implements Connection over a Solana JSON-RPC node.
type RPCConnection struct {
	client *rpc.Client
}

// NewRPCConnection wraps an existing RPC client.
func NewRPCConnection(client *rpc.Client) *RPCConnection {
	return &RPCConnection{client: client}
}

// GetBalance returns the lamport balance of the account at confirmed commitment.
func (c *RPCConnection) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	out, err := c.client.GetBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return out.Value, nil
}

// GetLatestBlockhash fetches a recent blockhash for transaction assembly.
func (c *RPCConnection) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := c.client.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	return out.Value.Blockhash, nil
}

// SendTransaction submits a signed transaction.
func (c *RPCConnection) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	return sig, nil
}

// ConfirmTransaction polls signature status until the transaction reaches
// confirmed commitment or the context expires.
func (c *RPCConnection) ConfirmTransaction(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()

	for {
		out, err := c.client.GetSignatureStatuses(ctx, true, sig)
		if err == nil && len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed: %v", sig, status.Err)
			}
			switch status.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirm transaction %s: %w", sig, ctx.Err())
		case <-ticker.C:
		}
	}
}
