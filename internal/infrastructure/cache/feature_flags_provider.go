// Package cache provides caching infrastructure.
package cache

import (
	"context"

	"saldo/internal/core/security"
	"saldo/internal/core/tenant"
)

// CacheBackedFlags implements security.FeatureFlagProvider using FlagCache.
// The tenant comes from the request scope on the context; a request with no
// scope sees every flag as disabled.
type CacheBackedFlags struct {
	cache *FlagCache
}

// NewCacheBackedFlags creates a feature flag provider backed by the flag cache.
func NewCacheBackedFlags(cache *FlagCache) *CacheBackedFlags {
	return &CacheBackedFlags{cache: cache}
}

// IsEnabled checks if the feature is enabled for the context's tenant.
func (f *CacheBackedFlags) IsEnabled(ctx context.Context, flag string) bool {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return false
	}
	return f.cache.IsFeatureEnabled(scope.TenantID, flag)
}

// Ensure interface compliance at compile time.
var _ security.FeatureFlagProvider = (*CacheBackedFlags)(nil)
