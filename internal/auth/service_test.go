package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gagliardetto/solana-go"
	"github.com/redis/go-redis/v9"

	"github.com/cloakedagent/cloaked-backend/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		AccessTokenTTL: time.Hour,
		ChallengeTTL:   time.Minute,
	}
}

func TestChallengeLoginRoundTrip(t *testing.T) {
	svc := NewService(testConfig(), NewMemoryChallengeStore())
	ctx := context.Background()

	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pubkey := key.PublicKey().String()

	message, err := svc.Challenge(ctx, pubkey)
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}

	sig, err := key.Sign([]byte(message))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	session, err := svc.Login(ctx, pubkey, sig.String())
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.AccessToken == "" {
		t.Fatal("expected access token")
	}

	claims, err := VerifySessionToken(session.AccessToken, []byte("test-secret"))
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if claims.Subject != pubkey {
		t.Fatalf("expected subject %s, got %s", pubkey, claims.Subject)
	}
}

func TestLoginRejectsWrongSigner(t *testing.T) {
	svc := NewService(testConfig(), NewMemoryChallengeStore())
	ctx := context.Background()

	key, _ := solana.NewRandomPrivateKey()
	otherKey, _ := solana.NewRandomPrivateKey()
	pubkey := key.PublicKey().String()

	message, err := svc.Challenge(ctx, pubkey)
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}

	sig, err := otherKey.Sign([]byte(message))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Login(ctx, pubkey, sig.String()); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func TestChallengeIsSingleUse(t *testing.T) {
	svc := NewService(testConfig(), NewMemoryChallengeStore())
	ctx := context.Background()

	key, _ := solana.NewRandomPrivateKey()
	pubkey := key.PublicKey().String()

	message, err := svc.Challenge(ctx, pubkey)
	if err != nil {
		t.Fatalf("challenge: %v", err)
	}
	sig, _ := key.Sign([]byte(message))

	if _, err := svc.Login(ctx, pubkey, sig.String()); err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, err := svc.Login(ctx, pubkey, sig.String()); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected challenge consumed, got %v", err)
	}
}

func TestLoginWithoutChallenge(t *testing.T) {
	svc := NewService(testConfig(), NewMemoryChallengeStore())

	key, _ := solana.NewRandomPrivateKey()
	sig, _ := key.Sign([]byte("anything"))

	if _, err := svc.Login(context.Background(), key.PublicKey().String(), sig.String()); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected no pending challenge, got %v", err)
	}
}

func TestRedisChallengeStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisChallengeStore(client)
	ctx := context.Background()

	if err := store.Put(ctx, "Wallet1", "nonce-1", time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	nonce, err := store.Take(ctx, "Wallet1")
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if nonce != "nonce-1" {
		t.Fatalf("expected nonce-1, got %s", nonce)
	}

	if _, err := store.Take(ctx, "Wallet1"); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected not found after take, got %v", err)
	}
}
