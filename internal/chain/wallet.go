package chain

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Wallet is the capability surface required from any wallet provider:
// key exposure, connection state, and transaction signing. Implementations
// may be backed by a local keypair or a remote signer.
type Wallet interface {
	PublicKey() solana.PublicKey
	Connected() bool
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// KeypairWallet signs with a locally held ed25519 keypair.
type KeypairWallet struct {
	key solana.PrivateKey
}

// NewKeypairWallet parses a base58-encoded private key.
func NewKeypairWallet(base58Key string) (*KeypairWallet, error) {
	key, err := solana.PrivateKeyFromBase58(base58Key)
	if err != nil {
		return nil, fmt.Errorf("parse wallet private key: %w", err)
	}
	return &KeypairWallet{key: key}, nil
}

// PublicKey returns the wallet's public key.
func (w *KeypairWallet) PublicKey() solana.PublicKey {
	return w.key.PublicKey()
}

// Connected reports whether the wallet holds signing material.
func (w *KeypairWallet) Connected() bool {
	return w != nil && len(w.key) > 0
}

// SignTransaction signs every input owned by the wallet key.
func (w *KeypairWallet) SignTransaction(_ context.Context, tx *solana.Transaction) error {
	if !w.Connected() {
		return fmt.Errorf("wallet has no signing key")
	}
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.key.PublicKey()) {
			return &w.key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	return nil
}
