// Package main provides CLI for tenant management.
// Usage: tenant create --code acme --name "ACME Corp"
//        tenant list
//        tenant migrate
//        tenant suspend <tenant-id>
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"saldo/internal/core/id"
	"saldo/internal/core/tenant"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "create":
		createTenant(ctx)
	case "list":
		listTenants(ctx)
	case "migrate":
		migrateDatabase()
	case "suspend":
		suspendTenant(ctx)
	case "activate":
		activateTenant(ctx)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Saldo Tenant Management CLI

Usage:
  tenant <command> [options]

Commands:
  create    Create a new tenant
  list      List all tenants
  migrate   Run migrations on the shared database
  suspend   Suspend a tenant
  activate  Activate a suspended tenant
  help      Show this help

Environment Variables:
  SALDO_DATABASE_URL   Connection string for the shared database (required)

Examples:
  tenant create --code acme --name "ACME Corporation" --currency USD
  tenant list
  tenant migrate
  tenant suspend <tenant-uuid>
  tenant activate <tenant-uuid>`)
}

func getPool(ctx context.Context) *pgxpool.Pool {
	dsn := os.Getenv("SALDO_DATABASE_URL")
	if dsn == "" {
		fmt.Println("Error: SALDO_DATABASE_URL environment variable is required")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	return pool
}

func createTenant(ctx context.Context) {
	var code, name, currency string

	// Parse arguments
	for i := 2; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--code":
			if i+1 < len(os.Args) {
				code = os.Args[i+1]
				i++
			}
		case "--name":
			if i+1 < len(os.Args) {
				name = os.Args[i+1]
				i++
			}
		case "--currency":
			if i+1 < len(os.Args) {
				currency = os.Args[i+1]
				i++
			}
		}
	}

	if currency == "" {
		currency = "USD"
	}

	input := tenant.CreateTenantInput{
		Code:         code,
		Name:         name,
		BaseCurrency: currency,
	}
	if err := input.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		fmt.Println("Usage: tenant create --code <code> --name <name> [--currency USD]")
		os.Exit(1)
	}

	pool := getPool(ctx)
	defer pool.Close()

	registry := tenant.NewPostgresRegistry(pool)

	fmt.Printf("Creating tenant '%s'...\n", input.Code)

	t := &tenant.Tenant{
		Code:         input.Code,
		Name:         input.Name,
		BaseCurrency: input.BaseCurrency,
		Status:       tenant.StatusActive,
		Settings:     input.Settings,
	}

	if err := registry.Create(ctx, t); err != nil {
		fmt.Printf("Error registering tenant: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n✓ Tenant '%s' created successfully!\n", t.Code)
	fmt.Printf("  Tenant ID: %s\n", t.ID)
	fmt.Printf("  Base currency: %s\n", t.BaseCurrency)
	fmt.Printf("  Status: active\n")
	fmt.Println("\nSeed the chart of accounts before posting documents:")
	fmt.Println("  SEED_TENANT_CODE=" + t.Code + " go run ./cmd/seed")
}

func listTenants(ctx context.Context) {
	pool := getPool(ctx)
	defer pool.Close()

	registry := tenant.NewPostgresRegistry(pool)
	tenants, err := registry.ListAll(ctx)
	if err != nil {
		fmt.Printf("Error listing tenants: %v\n", err)
		os.Exit(1)
	}

	if len(tenants) == 0 {
		fmt.Println("No tenants found")
		return
	}

	fmt.Printf("%-36s %-20s %-30s %-10s %-10s\n", "TENANT_ID", "CODE", "NAME", "CURRENCY", "STATUS")
	fmt.Println(strings.Repeat("-", 110))

	for _, t := range tenants {
		fmt.Printf("%-36s %-20s %-30s %-10s %-10s\n",
			t.ID,
			truncate(t.Code, 20),
			truncate(t.Name, 30),
			t.BaseCurrency,
			t.Status,
		)
	}
}

// migrateDatabase applies migrations to the shared database. Every tenant
// lives in the same schema, so this runs once, not per tenant.
func migrateDatabase() {
	dsn := os.Getenv("SALDO_DATABASE_URL")
	if dsn == "" {
		fmt.Println("Error: SALDO_DATABASE_URL environment variable is required")
		os.Exit(1)
	}

	fmt.Println("Running migrations...")

	cmd := exec.Command("goose", "-dir", "db/migrations", "postgres", dsn, "up")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Printf("✗ Migrations failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Migrations completed")
}

func suspendTenant(ctx context.Context) {
	changeStatus(ctx, "suspend", "suspended", tenant.StatusSuspended)
}

func activateTenant(ctx context.Context) {
	changeStatus(ctx, "activate", "activated", tenant.StatusActive)
}

func changeStatus(ctx context.Context, verb, done string, status tenant.Status) {
	if len(os.Args) < 3 {
		fmt.Printf("Usage: tenant %s <tenant-uuid>\n", verb)
		os.Exit(1)
	}

	tenantID, err := id.Parse(os.Args[2])
	if err != nil {
		fmt.Printf("Error: invalid tenant id: %v\n", err)
		os.Exit(1)
	}

	pool := getPool(ctx)
	defer pool.Close()

	registry := tenant.NewPostgresRegistry(pool)
	if err := registry.UpdateStatus(ctx, tenantID, status); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Tenant '%s' %s\n", tenantID, done)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
