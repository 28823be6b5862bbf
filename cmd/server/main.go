// Package main is the entry point for the saldo API server.
// All tenants share one database; rows are isolated by tenant_id.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"saldo/internal/core/tenant"
	"saldo/internal/domain/audit"
	"saldo/internal/domain/auth"
	"saldo/internal/domain/posting"
	"saldo/internal/infrastructure/cache"
	v1 "saldo/internal/infrastructure/http/v1"
	"saldo/internal/infrastructure/numerator"
	"saldo/internal/infrastructure/storage/postgres"
	"saldo/internal/infrastructure/storage/postgres/auth_repo"
	"saldo/pkg/logger"
)

// version is stamped by the build (-ldflags "-X main.version=...").
var version = "dev"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Infow("starting saldo server", "version", version, "env", cfg.Env)

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Tenant registry and resolver ---
	registry := tenant.NewPostgresRegistry(pool.Unwrap())
	resolver := tenant.NewResolver(registry, tenant.ResolverConfig{TTL: cfg.TenantCacheTTL})

	// --- Feature flag cache ---
	flagCache := cache.NewFlagCache(pool.Unwrap())
	if err := flagCache.Start(ctx); err != nil {
		log.Fatalw("failed to start feature flag cache", "error", err)
	}
	defer flagCache.Stop()

	// Tenant rows are cached by the resolver; drop them when the tenants
	// table changes so suspensions land before the TTL expires.
	flagCache.OnInvalidation(func(channel, payload string) {
		if channel == cache.ChannelTenants && payload != "" {
			resolver.Invalidate(payload)
		}
	})

	stats := flagCache.GetStats()
	log.Infow("feature flag cache ready", "flags", stats.FlagsCount, "tenants", stats.TenantsCount)

	// --- JWT Service ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.AccessTokenTTL = cfg.AccessTokenTTL
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Auth Service ---
	authConfig := auth.DefaultServiceConfig()
	authConfig.RefreshTokenExpiry = cfg.RefreshTokenTTL
	authService := auth.NewService(
		auth_repo.NewUserRepo(txManager),
		auth_repo.NewTokenRepo(txManager),
		txManager,
		jwtService,
		authConfig,
	)

	// --- Numerator Service ---
	numeratorService := numerator.New(txManager)

	// --- Audit trail and outbox sinks ---
	auditRepo, err := postgres.NewAuditRepo(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit repository", "error", err)
	}
	outboxPublisher := postgres.NewOutboxPublisher(txManager)
	sinks := []posting.EventSink{
		audit.NewRecorder(auditRepo),
		postgres.NewOutboxSink(outboxPublisher),
	}

	// --- Router ---
	router, err := v1.NewRouter(v1.RouterConfig{
		Pool:               pool,
		TxManager:          txManager,
		Logger:             log,
		JWTValidator:       jwtService,
		AuthService:        authService,
		TenantResolver:     resolver,
		Numerator:          numeratorService,
		Flags:              cache.NewCacheBackedFlags(flagCache),
		EventSinks:         sinks,
		AuditRepo:          auditRepo,
		IdempotencyEnabled: cfg.IdempotencyEnabled,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		Version:            version,
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
