package storage

import "sync"

// Registry maps agent identifiers to the single active Store for that
// agent. Registering a second store under the same identifier replaces
// the first; callers rely on last-write-wins to swap backends in tests
// and on reinitialization.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]Store
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]Store)}
}

// Register inserts or replaces the store keyed by its AgentID.
func (r *Registry) Register(s Store) {
	if s == nil {
		return
	}
	r.mu.Lock()
	r.stores[s.AgentID()] = s
	r.mu.Unlock()
}

// Get returns the store for agentID, or nil when none is registered.
func (r *Registry) Get(agentID string) Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stores[agentID]
}

// Has reports whether a store is registered for agentID.
func (r *Registry) Has(agentID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.stores[agentID]
	return ok
}

// All returns every registered store. Order is not significant.
func (r *Registry) All() []Store {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Store, 0, len(r.stores))
	for _, s := range r.stores {
		out = append(out, s)
	}
	return out
}

// Clear empties the registry. Used for test isolation and
// reinitialization.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.stores = make(map[string]Store)
	r.mu.Unlock()
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register adds a store to the process-wide registry.
func Register(s Store) { defaultRegistry.Register(s) }

// Get looks up a store in the process-wide registry.
func Get(agentID string) Store { return defaultRegistry.Get(agentID) }

// Has checks the process-wide registry for agentID.
func Has(agentID string) bool { return defaultRegistry.Has(agentID) }

// All returns every store in the process-wide registry.
func All() []Store { return defaultRegistry.All() }

// Clear empties the process-wide registry.
func Clear() { defaultRegistry.Clear() }
