package tenant

import (
	"context"
	"sync"
	"time"

	"saldo/internal/core/id"
)

// Resolver resolves tenant ids to live tenant rows for request middleware.
// Rows are cached with a short TTL so every request does not hit the tenants
// table; suspension takes effect within one TTL window.
type Resolver struct {
	registry Registry
	ttl      time.Duration

	mu    sync.RWMutex
	cache map[string]cachedTenant
}

type cachedTenant struct {
	tenant    *Tenant
	fetchedAt time.Time
}

// ResolverConfig configures cache behavior.
type ResolverConfig struct {
	// TTL is how long a resolved tenant row is trusted. 0 disables caching.
	TTL time.Duration
}

// DefaultResolverConfig returns production-safe defaults.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{TTL: 30 * time.Second}
}

// NewResolver creates a resolver over the registry.
func NewResolver(registry Registry, cfg ResolverConfig) *Resolver {
	return &Resolver{
		registry: registry,
		ttl:      cfg.TTL,
		cache:    make(map[string]cachedTenant),
	}
}

// Resolve returns the active tenant for the id, or ErrTenantNotFound /
// ErrTenantNotActive. Suspended tenants are never served from cache as active.
func (r *Resolver) Resolve(ctx context.Context, tenantID string) (*Tenant, error) {
	if r.ttl > 0 {
		r.mu.RLock()
		entry, ok := r.cache[tenantID]
		r.mu.RUnlock()
		if ok && time.Since(entry.fetchedAt) < r.ttl {
			if !entry.tenant.IsActive() {
				return nil, ErrTenantNotActive
			}
			return entry.tenant, nil
		}
	}

	parsed, err := id.Parse(tenantID)
	if err != nil {
		return nil, ErrTenantNotFound
	}
	t, err := r.registry.GetByID(ctx, parsed)
	if err != nil {
		return nil, err
	}

	if r.ttl > 0 {
		r.mu.Lock()
		r.cache[tenantID] = cachedTenant{tenant: t, fetchedAt: time.Now()}
		r.mu.Unlock()
	}

	if !t.IsActive() {
		return nil, ErrTenantNotActive
	}
	return t, nil
}

// Invalidate drops a cached entry, forcing the next Resolve to hit storage.
func (r *Resolver) Invalidate(tenantID string) {
	r.mu.Lock()
	delete(r.cache, tenantID)
	r.mu.Unlock()
}
