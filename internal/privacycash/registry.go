package privacycash

import "sync"

// Registry hands out one ledger Service per wallet session, constructing it
// lazily on first use. All consumers of a session share the same instance so
// the shared-balance semantics hold within the session.
type Registry struct {
	mu       sync.Mutex
	services map[string]*Service
	factory  func(owner string) *Service
}

// NewRegistry builds a registry around a per-owner service factory.
func NewRegistry(factory func(owner string) *Service) *Registry {
	return &Registry{
		services: make(map[string]*Service),
		factory:  factory,
	}
}

// For returns the session service for the owner, creating it if needed.
func (r *Registry) For(owner string) *Service {
	r.mu.Lock()
	defer r.mu.Unlock()
	if svc, ok := r.services[owner]; ok {
		return svc
	}
	svc := r.factory(owner)
	r.services[owner] = svc
	return svc
}
