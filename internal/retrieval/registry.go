package retrieval

import (
	"fmt"
	"sort"
	"sync"
)

// EngineFactory builds a retrieval engine for a tenant.
type EngineFactory func(tenant string) (*Engine, error)

// Registry owns the per-tenant engines. It is an explicit object injected by
// the composition layer rather than process-global state, so tests can use
// throwaway instances. Caches are never shared across tenants.
type Registry struct {
	mu      sync.Mutex
	engines map[string]*Engine
	factory EngineFactory
}

// NewRegistry creates a registry that builds engines lazily via factory.
func NewRegistry(factory EngineFactory) *Registry {
	return &Registry{
		engines: make(map[string]*Engine),
		factory: factory,
	}
}

// Engine returns the engine for tenant, creating it on first use.
func (r *Registry) Engine(tenant string) (*Engine, error) {
	if tenant == "" {
		return nil, fmt.Errorf("tenant must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines[tenant]; ok {
		return e, nil
	}
	e, err := r.factory(tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine for tenant %s: %w", tenant, err)
	}
	r.engines[tenant] = e
	return e, nil
}

// Tenants returns the tenants with live engines, sorted.
func (r *Registry) Tenants() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	tenants := make([]string, 0, len(r.engines))
	for t := range r.engines {
		tenants = append(tenants, t)
	}
	sort.Strings(tenants)
	return tenants
}
