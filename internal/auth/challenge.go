package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const challengeKeyPrefix = "auth:challenge:"

// ChallengeStore holds one pending sign-in nonce per public key. Take removes
// the nonce so each challenge is single-use.
type ChallengeStore interface {
	Put(ctx context.Context, pubkey, nonce string, ttl time.Duration) error
	Take(ctx context.Context, pubkey string) (string, error)
}

// RedisChallengeStore keeps nonces in Redis with a TTL.
type RedisChallengeStore struct {
	client *redis.Client
}

// NewRedisChallengeStore builds a Redis-backed challenge store.
func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{client: client}
}

func (s *RedisChallengeStore) Put(ctx context.Context, pubkey, nonce string, ttl time.Duration) error {
	return s.client.Set(ctx, challengeKeyPrefix+pubkey, nonce, ttl).Err()
}

func (s *RedisChallengeStore) Take(ctx context.Context, pubkey string) (string, error) {
	nonce, err := s.client.GetDel(ctx, challengeKeyPrefix+pubkey).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrChallengeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("take challenge: %w", err)
	}
	return nonce, nil
}

type memoryChallenge struct {
	nonce   string
	expires time.Time
}

// MemoryChallengeStore is a process-local store for tests and dev mode.
type MemoryChallengeStore struct {
	mu      sync.Mutex
	pending map[string]memoryChallenge
}

// NewMemoryChallengeStore returns an empty in-memory challenge store.
func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{pending: make(map[string]memoryChallenge)}
}

func (s *MemoryChallengeStore) Put(_ context.Context, pubkey, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[pubkey] = memoryChallenge{nonce: nonce, expires: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryChallengeStore) Take(_ context.Context, pubkey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.pending[pubkey]
	if !ok {
		return "", ErrChallengeNotFound
	}
	delete(s.pending, pubkey)
	if time.Now().After(entry.expires) {
		return "", ErrChallengeNotFound
	}
	return entry.nonce, nil
}
