package security

import (
	"context"
	"sync"
)

// FeatureFlagProvider provides feature flag evaluation. The abstraction
// allows different backends: in-memory, database-backed, external service.
type FeatureFlagProvider interface {
	// IsEnabled checks if a feature is enabled for the request context.
	IsEnabled(ctx context.Context, flag string) bool
}

// Feature flag names.
const (
	// FlagPolicyRules gates CEL confirmation rules. Off switches the engine
	// back to built-in validation only — the escape hatch when a tenant
	// deploys a rule that rejects everything.
	FlagPolicyRules = "policy_rules"

	// FlagOutboxDispatch gates the background outbox dispatcher.
	FlagOutboxDispatch = "outbox_dispatch"
)

// InMemoryFlags is a process-local feature flag provider.
type InMemoryFlags struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewInMemoryFlags creates an in-memory flag provider with the given
// defaults enabled.
func NewInMemoryFlags(enabled ...string) *InMemoryFlags {
	f := &InMemoryFlags{flags: make(map[string]bool)}
	for _, flag := range enabled {
		f.flags[flag] = true
	}
	return f
}

func (f *InMemoryFlags) IsEnabled(ctx context.Context, flag string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.flags[flag]
}

// SetFlag sets a flag (admin/testing).
func (f *InMemoryFlags) SetFlag(flag string, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[flag] = enabled
}

var _ FeatureFlagProvider = (*InMemoryFlags)(nil)
