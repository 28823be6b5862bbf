// Package cache provides caching infrastructure with PostgreSQL LISTEN/NOTIFY support.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"saldo/internal/core/id"
	"saldo/pkg/logger"
)

// Notification channels. Triggers on sys_feature_flags and tenants fire
// NOTIFY on these; the payload is the affected tenant id (empty reloads all).
const (
	ChannelFeatureFlags = "feature_flags_changed"
	ChannelTenants      = "tenants_changed"
)

// FlagCache provides thread-safe caching of per-tenant feature flags with
// automatic invalidation via PostgreSQL LISTEN/NOTIFY. This eliminates
// TTL-based polling and provides near-realtime flag updates.
//
// Tenant rows themselves are cached by tenant.Resolver; the cache only
// relays tenants_changed notifications to registered listeners so the
// resolver can drop stale entries.
type FlagCache struct {
	pool  *pgxpool.Pool
	mu    sync.RWMutex
	flags map[flagKey]FeatureFlag

	// Listeners for cache invalidation
	listeners   []InvalidationListener
	listenersMu sync.RWMutex

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

type flagKey struct {
	tenantID id.ID
	name     string
}

// FeatureFlag represents a per-tenant feature flag.
type FeatureFlag struct {
	ID          id.ID
	TenantID    id.ID
	FlagName    string
	Description string
	IsEnabled   bool
	ValidFrom   *time.Time
	ValidUntil  *time.Time
}

// EnabledAt reports whether the flag is on at the given instant. The
// validity window is evaluated at read time so a cached flag expires
// without waiting for a NOTIFY.
func (f FeatureFlag) EnabledAt(now time.Time) bool {
	if !f.IsEnabled {
		return false
	}
	if f.ValidFrom != nil && now.Before(*f.ValidFrom) {
		return false
	}
	if f.ValidUntil != nil && now.After(*f.ValidUntil) {
		return false
	}
	return true
}

// InvalidationListener is called when cache is invalidated.
type InvalidationListener func(channel string, payload string)

// NewFlagCache creates a new feature flag cache.
func NewFlagCache(pool *pgxpool.Pool) *FlagCache {
	return &FlagCache{
		pool:  pool,
		flags: make(map[flagKey]FeatureFlag),
	}
}

// Start begins listening for NOTIFY events and loads initial data.
func (c *FlagCache) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.lifecycleMu.Lock()
	if c.started {
		c.lifecycleMu.Unlock()
		return nil
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.started = true
	c.lifecycleMu.Unlock()

	// Load initial data
	if err := c.loadFlags(c.ctx); err != nil {
		c.Stop()
		return fmt.Errorf("load feature flags: %w", err)
	}

	// Start listener goroutine
	c.wg.Add(1)
	go c.listenLoop()
	logger.Info(c.ctx, "feature flag cache started")
	return nil
}

// Stop gracefully stops the cache listener.
func (c *FlagCache) Stop() {
	c.lifecycleMu.Lock()
	if !c.started {
		c.lifecycleMu.Unlock()
		return
	}
	cancel := c.cancel
	c.started = false
	c.cancel = nil
	c.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	logger.Info(context.Background(), "feature flag cache stopped")
}

// listenLoop listens for PostgreSQL NOTIFY events.
func (c *FlagCache) listenLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		// Acquire dedicated connection for LISTEN
		conn, err := c.pool.Acquire(c.ctx)
		if err != nil {
			logger.Error(c.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		// Subscribe to channels
		_, err = conn.Exec(c.ctx, "LISTEN "+ChannelFeatureFlags+"; LISTEN "+ChannelTenants+";")
		if err != nil {
			logger.Error(c.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		logger.Info(c.ctx, "listening for feature flag and tenant notifications")

		// Wait for notifications
		c.waitForNotifications(conn)
		conn.Release()
	}
}

// waitForNotifications blocks waiting for NOTIFY events.
func (c *FlagCache) waitForNotifications(conn *pgxpool.Conn) {
	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		// Wait for notification with timeout for graceful shutdown
		ctx, cancel := context.WithTimeout(c.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()
		if err != nil {
			if c.ctx.Err() != nil {
				return // Shutting down
			}
			// Timeout is expected, continue listening
			continue
		}

		logger.Debug(c.ctx, "received notification",
			"channel", notification.Channel,
			"payload", notification.Payload)

		// Handle notification
		c.handleNotification(notification.Channel, notification.Payload)
	}
}

// handleNotification processes NOTIFY event.
func (c *FlagCache) handleNotification(channel, payload string) {
	switch channel {
	case ChannelFeatureFlags:
		// Payload format: tenant id (empty reloads every tenant)
		c.invalidateFlags(c.ctx, payload)

	case ChannelTenants:
		// Tenant rows are cached by the resolver; listeners drop them.
	}

	// Notify registered listeners with panic recovery (no goroutine fan-out).
	// This keeps invalidation delivery bounded and avoids goroutine storms on bursts of NOTIFY events.
	c.listenersMu.RLock()
	for _, listener := range c.listeners {
		func(l InvalidationListener) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(c.ctx, "listener panic recovered", "channel", channel, "panic", r)
				}
			}()
			l(channel, payload)
		}(listener)
	}
	c.listenersMu.RUnlock()
}

// invalidateFlags reloads flags for the tenant named by the payload.
func (c *FlagCache) invalidateFlags(ctx context.Context, payload string) {
	tenantID, err := id.Parse(strings.TrimSpace(payload))
	if err != nil {
		// Invalid payload, reload all.
		if err := c.loadFlags(ctx); err != nil {
			logger.Error(ctx, "failed to reload all feature flags", "error", err)
		}
		return
	}

	if err := c.loadTenantFlags(ctx, tenantID); err != nil {
		logger.Error(ctx, "failed to reload feature flags",
			"tenant_id", tenantID, "error", err)
	}
}

// loadFlags loads feature flags for all tenants from database.
func (c *FlagCache) loadFlags(ctx context.Context) error {
	rows, err := c.pool.Query(ctx, `
		SELECT id, tenant_id, flag_name, description, is_enabled,
			   valid_from, valid_until
		FROM sys_feature_flags
	`)
	if err != nil {
		return fmt.Errorf("query feature flags: %w", err)
	}
	defer rows.Close()

	flags := make(map[flagKey]FeatureFlag)
	for rows.Next() {
		var f FeatureFlag
		err := rows.Scan(
			&f.ID, &f.TenantID, &f.FlagName, &f.Description, &f.IsEnabled,
			&f.ValidFrom, &f.ValidUntil,
		)
		if err != nil {
			return fmt.Errorf("scan feature flag: %w", err)
		}
		flags[flagKey{tenantID: f.TenantID, name: f.FlagName}] = f
	}

	c.mu.Lock()
	c.flags = flags
	c.mu.Unlock()

	logger.Info(ctx, "loaded feature flags", "count", len(flags))
	return nil
}

// loadTenantFlags loads feature flags for a single tenant.
func (c *FlagCache) loadTenantFlags(ctx context.Context, tenantID id.ID) error {
	rows, err := c.pool.Query(ctx, `
		SELECT id, tenant_id, flag_name, description, is_enabled,
			   valid_from, valid_until
		FROM sys_feature_flags
		WHERE tenant_id = $1
	`, tenantID)
	if err != nil {
		return fmt.Errorf("query feature flags: %w", err)
	}
	defer rows.Close()

	flags := make(map[string]FeatureFlag)
	for rows.Next() {
		var f FeatureFlag
		err := rows.Scan(
			&f.ID, &f.TenantID, &f.FlagName, &f.Description, &f.IsEnabled,
			&f.ValidFrom, &f.ValidUntil,
		)
		if err != nil {
			return fmt.Errorf("scan feature flag: %w", err)
		}
		flags[f.FlagName] = f
	}

	// Replace the tenant's slice of the cache wholesale so deleted flags
	// disappear, not just changed ones.
	c.mu.Lock()
	for key := range c.flags {
		if key.tenantID == tenantID {
			delete(c.flags, key)
		}
	}
	for name, f := range flags {
		c.flags[flagKey{tenantID: tenantID, name: name}] = f
	}
	c.mu.Unlock()

	logger.Debug(ctx, "reloaded feature flags", "tenant_id", tenantID, "flags", len(flags))
	return nil
}

// IsFeatureEnabled checks if a flag is enabled for the tenant. Missing
// flags are disabled; optional behavior stays off until switched on.
func (c *FlagCache) IsFeatureEnabled(tenantID id.ID, flagName string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	flag, ok := c.flags[flagKey{tenantID: tenantID, name: flagName}]
	return ok && flag.EnabledAt(time.Now())
}

// OnInvalidation registers a callback for cache invalidation events.
func (c *FlagCache) OnInvalidation(listener InvalidationListener) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, listener)
	c.listenersMu.Unlock()
}

// CacheStats returns cache statistics.
type CacheStats struct {
	FlagsCount   int
	TenantsCount int
}

// GetStats returns current cache statistics.
func (c *FlagCache) GetStats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tenants := make(map[id.ID]struct{}, len(c.flags))
	for key := range c.flags {
		tenants[key.tenantID] = struct{}{}
	}

	return CacheStats{
		FlagsCount:   len(c.flags),
		TenantsCount: len(tenants),
	}
}
