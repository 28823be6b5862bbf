// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"saldo/internal/core/id"
	"saldo/internal/core/security"
	"saldo/internal/core/tenant"
	"saldo/internal/domain/ledger"
	"saldo/internal/infrastructure/storage/postgres"
	"saldo/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("SALDO_DATABASE_URL")
	if dbURL == "" {
		log.Fatal("SALDO_DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	tenantID, err := seedTenant(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed tenant", "error", err)
	}

	adminUserID, err := seedAdminUser(ctx, pool, log, tenantID)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if err := seedChartOfAccounts(ctx, pool, log, tenantID); err != nil {
		log.Fatalw("failed to seed chart of accounts", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log, tenantID); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Infow("seeding completed successfully",
		"tenant_id", tenantID,
		"admin_user_id", adminUserID,
	)
}

// seedTenant makes sure the seed tenant exists and returns its id. The
// code comes from SEED_TENANT_CODE, defaulting to "demo".
func seedTenant(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	input := tenant.CreateTenantInput{
		Code:         os.Getenv("SEED_TENANT_CODE"),
		Name:         os.Getenv("SEED_TENANT_NAME"),
		BaseCurrency: os.Getenv("SEED_TENANT_CURRENCY"),
	}
	if input.Code == "" {
		input.Code = "demo"
	}
	if input.Name == "" {
		input.Name = "Demo Company"
	}
	if input.BaseCurrency == "" {
		input.BaseCurrency = "USD"
	}
	if err := input.Validate(); err != nil {
		return id.Nil(), fmt.Errorf("validate tenant input: %w", err)
	}

	registry := tenant.NewPostgresRegistry(pool.Unwrap())

	existing, err := registry.GetByCode(ctx, input.Code)
	if err == nil {
		log.Infow("tenant already exists", "code", input.Code, "tenant_id", existing.ID)
		return existing.ID, nil
	}
	if !errors.Is(err, tenant.ErrTenantNotFound) {
		return id.Nil(), fmt.Errorf("check tenant exists: %w", err)
	}

	t := &tenant.Tenant{
		Code:         input.Code,
		Name:         input.Name,
		BaseCurrency: input.BaseCurrency,
		Status:       tenant.StatusActive,
		Settings:     input.Settings,
	}
	if err := registry.Create(ctx, t); err != nil {
		return id.Nil(), err
	}

	log.Infow("tenant created", "code", t.Code, "tenant_id", t.ID)
	return t.ID, nil
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger, tenantID id.ID) (id.ID, error) {
	adminEmail := os.Getenv("SEED_ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@demo.local"
	}

	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE tenant_id = $1 AND lower(email) = lower($2) AND deleted_at IS NULL`,
		tenantID, adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO users (
			id, tenant_id, email, password_hash, first_name, last_name,
			is_active, is_admin, roles, version
		)
		VALUES ($1, $2, $3, $4, 'System', 'Admin', true, true, $5, 1)
	`, userID, tenantID, adminEmail, string(passwordHash), []string{string(security.RoleAdmin)})
	if err != nil {
		return id.Nil(), fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created",
		"email", adminEmail,
		"user_id", userID,
	)

	return userID, nil
}

// seedChartOfAccounts creates the accounts the posting engine resolves by
// default. Tenants can remap roles to other codes through settings, but a
// fresh tenant needs these rows before any document can post.
func seedChartOfAccounts(ctx context.Context, pool *postgres.Pool, log *logger.Logger, tenantID id.ID) error {
	accounts := []struct {
		code  string
		name  string
		aType ledger.AccountType
	}{
		{"1010", "Cash", ledger.AccountAsset},
		{"1210", "Accounts Receivable", ledger.AccountAsset},
		{"1310", "Inventory", ledger.AccountAsset},
		{"2010", "Accounts Payable", ledger.AccountLiability},
		{"4010", "Sales Revenue", ledger.AccountIncome},
		{"5010", "Cost of Goods Sold", ledger.AccountExpense},
		{"5020", "Inventory Adjustment", ledger.AccountExpense},
	}

	for _, a := range accounts {
		acc := ledger.NewAccount(tenantID, a.code, a.name, a.aType)
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO accounts (id, tenant_id, code, name, account_type, natural_side, version, deletion_mark, attributes)
			VALUES ($1, $2, $3, $4, $5, $6, 1, false, '{}')
			ON CONFLICT (tenant_id, code) DO NOTHING
		`, acc.ID, tenantID, acc.Code, acc.Name, acc.Type, acc.NaturalSide)
		if err != nil {
			return fmt.Errorf("seed account %s: %w", a.code, err)
		}
	}

	log.Infow("chart of accounts seeded", "accounts", len(accounts))
	return nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger, tenantID id.ID) error {
	log.Info("seeding demo data...")

	// 1. Currencies. IDs are captured for the rate history below.
	currencies := []struct {
		isoCode       string
		name          string
		symbol        string
		decimalPlaces int
		isBase        bool
	}{
		{"USD", "US Dollar", "$", 2, true},
		{"EUR", "Euro", "€", 2, false},
		{"GBP", "Pound Sterling", "£", 2, false},
	}

	currencyIDs := make(map[string]id.ID)

	for _, c := range currencies {
		currID := id.New()
		commandTag, err := pool.Pool.Exec(ctx, `
			INSERT INTO currencies (
				id, tenant_id, code, name, iso_code, symbol,
				decimal_places, is_base, version, deletion_mark, attributes
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, false, '{}')
			ON CONFLICT (tenant_id, code) DO NOTHING
		`, currID, tenantID, c.isoCode, c.name, c.isoCode, c.symbol, c.decimalPlaces, c.isBase)
		if err != nil {
			log.Warnw("failed to seed currency", "iso", c.isoCode, "error", err)
			continue
		}

		// On conflict the row already exists; fetch its id for the rates.
		if commandTag.RowsAffected() == 0 {
			err = pool.Pool.QueryRow(ctx, `
				SELECT id FROM currencies WHERE tenant_id = $1 AND code = $2
			`, tenantID, c.isoCode).Scan(&currID)
			if err != nil {
				log.Warnw("failed to fetch existing currency id", "iso", c.isoCode, "error", err)
				continue
			}
		}

		currencyIDs[c.isoCode] = currID
	}

	// 2. Exchange rates for the non-base currencies, effective today.
	rates := []struct {
		isoCode string
		rate    string
	}{
		{"EUR", "1.0850"},
		{"GBP", "1.2700"},
	}

	today := time.Now().Truncate(24 * time.Hour)
	for _, r := range rates {
		currID, ok := currencyIDs[r.isoCode]
		if !ok {
			continue
		}
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO exchange_rates (id, tenant_id, currency_id, rate, effective_date)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tenant_id, currency_id, effective_date) DO NOTHING
		`, id.New(), tenantID, currID, r.rate, today)
		if err != nil {
			log.Warnw("failed to seed exchange rate", "iso", r.isoCode, "error", err)
		}
	}

	// 3. Stores.
	stores := []struct {
		code      string
		name      string
		sType     string
		address   string
		isDefault bool
	}{
		{"MAIN", "Main Warehouse", "warehouse", "1 Dock Street", true},
		{"RETAIL", "Retail Store", "retail", "5 Market Square", false},
	}

	for _, s := range stores {
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO stores (id, tenant_id, code, name, type, address, is_active, is_default, version, deletion_mark, attributes)
			VALUES ($1, $2, $3, $4, $5, $6, true, $7, 1, false, '{}')
			ON CONFLICT (tenant_id, code) DO NOTHING
		`, id.New(), tenantID, s.code, s.name, s.sType, s.address, s.isDefault)
		if err != nil {
			log.Warnw("failed to seed store", "code", s.code, "error", err)
		}
	}

	// 4. Counterparties.
	counterparties := []struct {
		code  string
		name  string
		cType string
		taxID string
	}{
		{"CP-001", "Northwind Supplies Ltd", "supplier", "GB123456789"},
		{"CP-002", "Acme Retail Inc", "customer", "US987654321"},
		{"CP-003", "Omni Trading Co", "both", "DE112233445"},
	}

	for _, cp := range counterparties {
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO counterparties (id, tenant_id, code, name, type, full_name, tax_id, version, deletion_mark, attributes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 1, false, '{}')
			ON CONFLICT (tenant_id, code) DO NOTHING
		`, id.New(), tenantID, cp.code, cp.name, cp.cType, cp.name, cp.taxID)
		if err != nil {
			log.Warnw("failed to seed counterparty", "code", cp.code, "error", err)
		}
	}

	// 5. Products.
	products := []struct {
		code    string
		name    string
		pType   string
		sku     string
		barcode string
		unit    string
		price   string
	}{
		{"PR-00001", "Office Paper A4", "goods", "PAP-A4", "4600000000001", "pack", "4.90"},
		{"PR-00002", "Ballpoint Pen Blue", "goods", "PEN-BLU", "4600000000002", "pc", "0.80"},
		{"PR-00003", "Desk Stapler", "goods", "STP-001", "4600000000003", "pc", "6.50"},
		{"PR-00004", "Paper Clips 28mm (100)", "goods", "CLP-028", "4600000000004", "pack", "1.20"},
		{"PR-00005", "Lever Arch Folder", "goods", "FOL-REG", "4600000000005", "pc", "3.40"},
		{"PR-00006", "Freight Delivery", "service", "DELIVERY", "", "pc", "25.00"},
	}

	for _, p := range products {
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO products (id, tenant_id, code, name, type, sku, barcode, unit, default_price, version, deletion_mark, attributes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, false, '{}')
			ON CONFLICT (tenant_id, code) DO NOTHING
		`, id.New(), tenantID, p.code, p.name, p.pType, p.sku, p.barcode, p.unit, p.price)
		if err != nil {
			log.Warnw("failed to seed product", "code", p.code, "error", err)
		}
	}

	// 6. Feature flags. Disabled by default; flipping is_enabled turns the
	// CEL transition rules on without a deploy.
	_, err := pool.Pool.Exec(ctx, `
		INSERT INTO sys_feature_flags (id, tenant_id, flag_name, description, is_enabled)
		VALUES ($1, $2, $3, 'Evaluate tenant CEL rules on document transitions', false)
		ON CONFLICT (tenant_id, flag_name) DO NOTHING
	`, id.New(), tenantID, security.FlagPolicyRules)
	if err != nil {
		log.Warnw("failed to seed feature flag", "flag", security.FlagPolicyRules, "error", err)
	}

	log.Info("demo data seeded successfully")
	return nil
}
