package privacycash

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// DefaultBalanceKey is the storage key used when the ledger serves a single
// profile, matching the key the dashboard persists under.
const DefaultBalanceKey = "privacy_cash_balance"

// BalanceKeyFor derives a per-session storage key from a wallet public key.
func BalanceKeyFor(pubkey string) string {
	return "privacycash:balance:" + pubkey
}

// Store persists the simulated lamport balance as a single decimal value.
type Store interface {
	// Load returns the stored balance; found is false when no value exists yet.
	Load(ctx context.Context) (lamports uint64, found bool, err error)
	Save(ctx context.Context, lamports uint64) error
}

// RedisStore keeps the balance in Redis under a fixed key with no expiry.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore builds a store bound to the given key. An empty key falls
// back to DefaultBalanceKey.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultBalanceKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (uint64, bool, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load balance: %w", err)
	}
	lamports, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse stored balance %q: %w", val, err)
	}
	return lamports, true, nil
}

func (s *RedisStore) Save(ctx context.Context, lamports uint64) error {
	if err := s.client.Set(ctx, s.key, strconv.FormatUint(lamports, 10), 0).Err(); err != nil {
		return fmt.Errorf("save balance: %w", err)
	}
	return nil
}

// MemoryStore is a process-local Store used in tests and when Redis is absent.
type MemoryStore struct {
	mu       sync.Mutex
	lamports uint64
	set      bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lamports, s.set, nil
}

func (s *MemoryStore) Save(_ context.Context, lamports uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lamports = lamports
	s.set = true
	return nil
}
