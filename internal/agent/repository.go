package agent

import (
	"context"
	"sort"
	"sync"
)

// Repository persists agent records.
type Repository interface {
	Create(ctx context.Context, agent Agent) error
	Get(ctx context.Context, id string) (Agent, error)
	ListByOwner(ctx context.Context, owner string) ([]Agent, error)
	Update(ctx context.Context, agent Agent) error
	Delete(ctx context.Context, id string) error
}

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Agent
}

// NewMemoryRepository constructs an in-memory repository for tests and
// Redis/Postgres-less development.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Agent)}
}

func (r *memoryRepository) Create(_ context.Context, agent Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storage[agent.ID] = agent
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.storage[id]
	if !ok {
		return Agent{}, ErrNotFound
	}
	return agent, nil
}

func (r *memoryRepository) ListByOwner(_ context.Context, owner string) ([]Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var agents []Agent
	for _, a := range r.storage {
		if a.Owner == owner {
			agents = append(agents, a)
		}
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].CreatedAt.Before(agents[j].CreatedAt) })
	return agents, nil
}

func (r *memoryRepository) Update(_ context.Context, agent Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.storage[agent.ID]; !ok {
		return ErrNotFound
	}
	r.storage[agent.ID] = agent
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.storage[id]; !ok {
		return ErrNotFound
	}
	delete(r.storage, id)
	return nil
}
