package auth

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/cloakedagent/cloaked-backend/internal/config"
)

var (
	// ErrChallengeNotFound occurs when no pending nonce exists for the pubkey.
	ErrChallengeNotFound = errors.New("no pending challenge")

	// ErrInvalidSignature occurs when the signed message does not verify
	// against the claimed public key.
	ErrInvalidSignature = errors.New("invalid signature")
)

// Service implements sign-in-with-wallet: a single-use nonce challenge signed
// by the wallet's ed25519 key, exchanged for a session token.
type Service struct {
	cfg        config.Config
	challenges ChallengeStore
}

// NewService builds an auth service over the given challenge store.
func NewService(cfg config.Config, challenges ChallengeStore) *Service {
	return &Service{cfg: cfg, challenges: challenges}
}

// Session is the issued token pair for a verified wallet.
type Session struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Challenge issues a nonce for the public key and returns the message the
// wallet must sign.
func (s *Service) Challenge(ctx context.Context, pubkey string) (string, error) {
	if _, err := solana.PublicKeyFromBase58(pubkey); err != nil {
		return "", fmt.Errorf("invalid public key: %w", err)
	}

	nonce := uuid.NewString()
	if err := s.challenges.Put(ctx, pubkey, nonce, s.cfg.ChallengeTTL); err != nil {
		return "", fmt.Errorf("store challenge: %w", err)
	}
	return SignInMessage(nonce), nil
}

// Login verifies the signature over the pending challenge message and issues
// a session token. The challenge is consumed whether or not verification
// succeeds.
func (s *Service) Login(ctx context.Context, pubkey, signatureBase58 string) (Session, error) {
	key, err := solana.PublicKeyFromBase58(pubkey)
	if err != nil {
		return Session{}, fmt.Errorf("invalid public key: %w", err)
	}
	sig, err := solana.SignatureFromBase58(signatureBase58)
	if err != nil {
		return Session{}, ErrInvalidSignature
	}

	nonce, err := s.challenges.Take(ctx, pubkey)
	if err != nil {
		return Session{}, err
	}

	message := []byte(SignInMessage(nonce))
	if !ed25519.Verify(ed25519.PublicKey(key.Bytes()), message, sig[:]) {
		return Session{}, ErrInvalidSignature
	}

	now := time.Now()
	token, err := SignSessionToken(SessionClaims{
		Subject:   pubkey,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.cfg.AccessTokenTTL).Unix(),
	}, []byte(s.cfg.JWTSecret))
	if err != nil {
		return Session{}, err
	}

	return Session{AccessToken: token, ExpiresIn: int64(s.cfg.AccessTokenTTL.Seconds())}, nil
}

// SignInMessage renders the human-readable message the wallet signs.
func SignInMessage(nonce string) string {
	return "Sign in to Cloaked devnet dashboard\nNonce: " + nonce
}
