// Package main is the entry point for the saldo background worker: outbox
// dispatch plus periodic maintenance (expired tokens, idempotency records,
// audit retention). One instance serves all tenants; a second instance is
// safe because the outbox relay locks its batches.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"

	"saldo/internal/infrastructure/storage/postgres"
	"saldo/internal/infrastructure/storage/postgres/auth_repo"
	"saldo/pkg/logger"
)

// Config holds worker runtime configuration. Variables carry the SALDO_
// prefix, shared with the server where names overlap.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"500ms"`
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`

	MaintenanceInterval time.Duration `envconfig:"MAINTENANCE_INTERVAL" default:"1h"`

	// AuditRetention is how long audit entries are kept. Zero disables
	// the sweep entirely.
	AuditRetention time.Duration `envconfig:"AUDIT_RETENTION" default:"2160h"`

	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("saldo", &cfg); err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Env != "production",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting saldo worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	auditRepo, err := postgres.NewAuditRepo(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit repository", "error", err)
	}

	relay := postgres.NewOutboxRelay(pool.Unwrap(), cfg.OutboxBatchSize, &eventLogSink{log: log.WithComponent("outbox")})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runOutbox(ctx, log, relay, cfg.OutboxPollInterval)
	})

	g.Go(func() error {
		return runMaintenance(ctx, log, maintenanceDeps{
			idempotency: postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL),
			tokens:      auth_repo.NewTokenRepo(txManager),
			audit:       auditRepo,
			retention:   cfg.AuditRetention,
			interval:    cfg.MaintenanceInterval,
		})
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatalw("worker failed", "error", err)
	}

	log.Info("worker stopped")
}

// runOutbox polls the outbox and dispatches pending messages. Exhausted
// messages move to the dead letter table once per hour.
func runOutbox(ctx context.Context, log *logger.Logger, relay *postgres.OutboxRelay, poll time.Duration) error {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	dlqTicker := time.NewTicker(time.Hour)
	defer dlqTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			processed, err := relay.ProcessBatch(ctx)
			if err != nil {
				log.Errorw("outbox batch failed", "error", err)
				continue
			}
			if processed > 0 {
				log.Debugw("outbox batch processed", "count", processed)
			}

		case <-dlqTicker.C:
			moved, err := relay.MoveToDLQ(ctx)
			if err != nil {
				log.Errorw("outbox DLQ sweep failed", "error", err)
				continue
			}
			if moved > 0 {
				log.Warnw("outbox messages dead-lettered", "count", moved)
			}
		}
	}
}

type maintenanceDeps struct {
	idempotency *postgres.IdempotencyStore
	tokens      *auth_repo.TokenRepo
	audit       *postgres.AuditRepo
	retention   time.Duration
	interval    time.Duration
}

// runMaintenance sweeps expired rows on a fixed interval.
func runMaintenance(ctx context.Context, log *logger.Logger, deps maintenanceDeps) error {
	ticker := time.NewTicker(deps.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if n, err := deps.idempotency.CleanupExpired(ctx); err != nil {
				log.Errorw("idempotency cleanup failed", "error", err)
			} else if n > 0 {
				log.Infow("cleaned up idempotency records", "count", n)
			}

			if n, err := deps.tokens.CleanupExpiredTokens(ctx); err != nil {
				log.Errorw("token cleanup failed", "error", err)
			} else if n > 0 {
				log.Infow("cleaned up expired tokens", "count", n)
			}

			if deps.retention > 0 {
				cutoff := time.Now().Add(-deps.retention)
				if n, err := deps.audit.PurgeOlderThan(ctx, cutoff); err != nil {
					log.Errorw("audit retention sweep failed", "error", err)
				} else if n > 0 {
					log.Infow("purged audit entries", "count", n, "cutoff", cutoff)
				}
			}
		}
	}
}

// eventLogSink is the relay's delivery target: committed transition events
// are logged and marked published. A broker publisher implements the same
// interface when one is wired in.
type eventLogSink struct {
	log *logger.Logger
}

func (s *eventLogSink) Handle(_ context.Context, msg *postgres.OutboxMessage) error {
	s.log.Infow("event dispatched",
		"event_type", msg.EventType,
		"aggregate_id", msg.AggregateID,
		"tenant_id", msg.TenantID,
	)
	return nil
}
