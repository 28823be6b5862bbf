// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"saldo/internal/core/numerator"
	"saldo/internal/core/security"
	"saldo/internal/core/tenant"
	"saldo/internal/domain/audit"
	"saldo/internal/domain/auth"
	"saldo/internal/domain/catalogs/counterparty"
	"saldo/internal/domain/catalogs/product"
	"saldo/internal/domain/catalogs/store"
	"saldo/internal/domain/currency"
	"saldo/internal/domain/documents"
	"saldo/internal/domain/inventory"
	"saldo/internal/domain/ledger"
	"saldo/internal/domain/posting"
	"saldo/internal/infrastructure/http/v1/handlers"
	"saldo/internal/infrastructure/http/v1/middleware"
	"saldo/internal/infrastructure/storage/postgres"
	"saldo/internal/infrastructure/storage/postgres/catalog_repo"
	"saldo/internal/infrastructure/storage/postgres/document_repo"
	"saldo/internal/infrastructure/storage/postgres/inventory_repo"
	"saldo/internal/infrastructure/storage/postgres/ledger_repo"
	"saldo/pkg/logger"
)

// RouterConfig holds router configuration. Tenants share one database and
// one pool; isolation happens in the tenant scope middleware and the
// repositories, not in the wiring here.
type RouterConfig struct {
	// Pool is the shared database pool (health checks ping it).
	Pool *postgres.Pool

	// TxManager runs repository work against the shared pool.
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// TenantResolver turns token tenant claims into live tenant rows.
	TenantResolver *tenant.Resolver

	// Numerator for document number generation
	Numerator numerator.Generator

	// Flags gates optional behavior (confirmation policy rules) per tenant.
	Flags security.FeatureFlagProvider

	// EventSinks receive posting events (audit recorder, outbox).
	EventSinks []posting.EventSink

	// AuditRepo backs the audit read endpoints. Optional.
	AuditRepo audit.Repository

	// IdempotencyEnabled enables idempotency middleware
	IdempotencyEnabled bool

	// IdempotencyTTL is how long a completed response replays. Zero means 24h.
	IdempotencyTTL time.Duration

	// Version is reported by /health/info.
	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	// Set Gin mode based on environment
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth, no tenant required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		registerAuthRoutes(v1, cfg)

		// Protected endpoints - Auth verifies the token first, then the
		// tenant scope is built from its claims
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))          // 1. Validate JWT
		protected.Use(middleware.TenantScope(cfg.TenantResolver)) // 2. Resolve tenant, attach scope
		protected.Use(middleware.UserContext())                   // 3. Add UserID to context for domain layer

		// Apply idempotency middleware for mutating operations
		if cfg.IdempotencyEnabled {
			ttl := cfg.IdempotencyTTL
			if ttl <= 0 {
				ttl = 24 * time.Hour
			}
			idemStore := postgres.NewIdempotencyStore(cfg.TxManager, ttl)
			protected.Use(middleware.Idempotency(idemStore))
		}

		// Register entity routes
		registerCatalogRoutes(protected, cfg)
		if err := registerDocumentRoutes(protected, cfg); err != nil {
			return nil, err
		}
		registerInventoryRoutes(protected, cfg)
		registerLedgerRoutes(protected, cfg)
		registerAuditRoutes(protected, cfg)
	}

	return router, nil
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	// Public auth endpoints: no JWT yet, so the tenant comes from the
	// X-Tenant-ID header instead of token claims.
	publicAuth := rg.Group("/auth")
	publicAuth.Use(middleware.PublicTenantScope(cfg.TenantResolver))

	// Protected auth endpoints (JWT required)
	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))
	protectedAuth.Use(middleware.TenantScope(cfg.TenantResolver))
	protectedAuth.Use(middleware.UserContext())

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	readOnly := middleware.RequirePermission(security.PermissionRead)

	// --- COUNTERPARTIES ---
	{
		repo := catalog_repo.NewCounterpartyRepo(cfg.TxManager)
		service := counterparty.NewService(repo, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewCounterpartyHandler(baseHandler, service)
		group := rg.Group("/counterparties")
		RegisterCatalogRoutes(group, handler)
		group.GET("/by-tax-id/:taxId", readOnly, handler.FindByTaxID)
	}

	// --- PRODUCTS ---
	{
		repo := catalog_repo.NewProductRepo(cfg.TxManager)
		service := product.NewService(repo, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewProductHandler(baseHandler, service)
		group := rg.Group("/products")
		RegisterCatalogRoutes(group, handler)
		group.GET("/by-sku/:sku", readOnly, handler.FindBySKU)
		group.GET("/by-barcode/:barcode", readOnly, handler.FindByBarcode)
	}

	// --- STORES ---
	{
		repo := catalog_repo.NewStoreRepo(cfg.TxManager)
		service := store.NewService(repo, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewStoreHandler(baseHandler, service)
		group := rg.Group("/stores")
		RegisterCatalogRoutes(group, handler)
		group.GET("/default", readOnly, handler.GetDefault)
		group.POST("/:id/default", middleware.RequirePermission(security.PermissionUpdate), handler.SetDefault)
	}

	// --- CURRENCIES ---
	{
		repo := catalog_repo.NewCurrencyRepo(cfg.TxManager)
		rates := catalog_repo.NewRateRepo(cfg.TxManager)
		service := currency.NewService(repo, rates, cfg.TxManager)
		handler := handlers.NewCurrencyHandler(baseHandler, service)
		group := rg.Group("/currencies")
		RegisterCatalogRoutes(group, handler)
		group.GET("/by-iso/:iso", readOnly, handler.FindByISOCode)
		group.GET("/:id/rates", readOnly, handler.RateHistory)
		group.POST("/:id/rates", middleware.RequirePermission(security.PermissionUpdate), handler.SetRate)
	}

	// --- ACCOUNTS ---
	{
		repo := catalog_repo.NewAccountRepo(cfg.TxManager)
		service := ledger.NewAccountService(repo, cfg.TxManager, cfg.Numerator)
		handler := handlers.NewAccountHandler(baseHandler, service)
		RegisterCatalogRoutes(rg.Group("/accounts"), handler)
	}
}

// registerDocumentRoutes registers document endpoints: one group per kind,
// all sharing a single posting engine and draft service.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) (err error) {
	baseHandler := handlers.NewBaseHandler()

	// Shared repositories. The engine, the draft service and the reference
	// checker all see the same transaction through the context.
	docRepo := document_repo.NewDocumentRepo(cfg.TxManager)
	journalRepo := ledger_repo.NewJournalRepo(cfg.TxManager)
	positionRepo := inventory_repo.NewPositionRepo(cfg.TxManager)
	movementRepo := inventory_repo.NewMovementRepo(cfg.TxManager)
	accountRepo := catalog_repo.NewAccountRepo(cfg.TxManager)
	currencyRepo := catalog_repo.NewCurrencyRepo(cfg.TxManager)
	rateRepo := catalog_repo.NewRateRepo(cfg.TxManager)
	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	storeRepo := catalog_repo.NewStoreRepo(cfg.TxManager)
	counterpartyRepo := catalog_repo.NewCounterpartyRepo(cfg.TxManager)

	policy, err := documents.NewPolicyEngine(cfg.Flags)
	if err != nil {
		return err
	}

	engine := posting.NewEngine(posting.Config{
		Documents: docRepo,
		Journal:   journalRepo,
		Positions: positionRepo,
		Converter: currency.NewConverter(currencyRepo, rateRepo),
		Updater:   inventory.NewUpdater(positionRepo, movementRepo),
		Poster:    ledger.NewPoster(journalRepo),
		Accounts:  posting.NewAccountResolver(accountRepo),
		Policy:    policy,
		Numbers:   cfg.Numerator,
		Refs: &posting.CatalogChecker{
			Products:       productRepo,
			Stores:         storeRepo,
			Counterparties: counterpartyRepo,
		},
		TxManager: cfg.TxManager,
		Sinks:     cfg.EventSinks,
	})

	draftService := documents.NewService(docRepo, cfg.TxManager)
	currencyResolver := documents.NewCurrencyResolver(currencyRepo)
	storeService := store.NewService(storeRepo, cfg.TxManager, cfg.Numerator)

	mount := func(path string, kind documents.Kind) {
		handler := handlers.NewDocumentHandler(baseHandler, kind, draftService, engine, currencyResolver, storeService)
		RegisterDocumentRoutes(rg.Group(path), handler)
	}

	mount("/purchase-orders", documents.KindPurchaseOrder)
	mount("/sales-invoices", documents.KindSalesInvoice)
	mount("/stock-adjustments", documents.KindStockAdjustment)
	mount("/physical-inventories", documents.KindPhysicalInventory)
	mount("/cash-receipts", documents.KindCashReceipt)

	return nil
}

// registerInventoryRoutes registers inventory read endpoints.
func registerInventoryRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	readOnly := middleware.RequirePermission(security.PermissionRead)

	positionRepo := inventory_repo.NewPositionRepo(cfg.TxManager)
	movementRepo := inventory_repo.NewMovementRepo(cfg.TxManager)
	service := inventory.NewService(positionRepo, movementRepo)
	handler := handlers.NewInventoryHandler(baseHandler, service)

	group := rg.Group("/inventory")
	group.GET("/positions", readOnly, handler.GetPositions)
	group.GET("/movements", readOnly, handler.GetStockCard)
	group.GET("/movements/by-document/:id", readOnly, handler.GetDocumentMovements)
}

// registerLedgerRoutes registers journal read endpoints.
func registerLedgerRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	readOnly := middleware.RequirePermission(security.PermissionRead)

	journalRepo := ledger_repo.NewJournalRepo(cfg.TxManager)
	handler := handlers.NewLedgerHandler(baseHandler, journalRepo)

	group := rg.Group("/ledger")
	group.GET("/journal/by-document/:id", readOnly, handler.ListByDocument)
	group.GET("/journal/by-reference/:reference", readOnly, handler.ListByReference)
}

// registerAuditRoutes registers audit trail read endpoints.
func registerAuditRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuditRepo == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	readOnly := middleware.RequirePermission(security.PermissionRead)
	handler := handlers.NewAuditHandler(baseHandler, cfg.AuditRepo)

	group := rg.Group("/audit")
	group.GET("/by-document/:id", readOnly, handler.ListByDocument)
	group.GET("/recent", readOnly, handler.ListRecent)
}
