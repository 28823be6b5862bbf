package currency

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/tenant"
	"saldo/internal/core/tx"
	"saldo/internal/domain"
)

// Service provides business logic for the Currency catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Currency]
	repo  Repository
	rates RateRepository
}

// NewService creates a new Currency service.
func NewService(repo Repository, rates RateRepository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Currency]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "currency",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		rates:          rates,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)
	base.Hooks().OnBeforeDelete(svc.validateBeforeDelete)

	return svc
}

// prepareForCreate handles code defaulting and uniqueness checks.
func (s *Service) prepareForCreate(ctx context.Context, curr *Currency) error {
	// Use ISO code as code if not provided
	if curr.Code == "" && curr.ISOCode != nil {
		curr.Code = *curr.ISOCode
	}

	// Check ISO code uniqueness
	if exists, _ := s.checkISOCodeExists(ctx, curr.ISOCode, curr.ID); exists {
		return apperror.NewConflict("currency with this ISO code already exists").
			WithDetail("isoCode", curr.ISOCode)
	}

	// If setting as base, clear other base currencies
	if curr.IsBase {
		if err := s.repo.ClearBase(ctx); err != nil {
			return err
		}
	}

	return nil
}

// prepareForUpdate handles uniqueness checks.
func (s *Service) prepareForUpdate(ctx context.Context, curr *Currency) error {
	if exists, _ := s.checkISOCodeExists(ctx, curr.ISOCode, curr.ID); exists {
		return apperror.NewConflict("currency with this ISO code already exists").
			WithDetail("isoCode", curr.ISOCode)
	}

	if curr.IsBase {
		if err := s.repo.ClearBase(ctx); err != nil {
			return err
		}
	}

	return nil
}

// validateBeforeDelete prevents deletion of the base currency.
func (s *Service) validateBeforeDelete(ctx context.Context, curr *Currency) error {
	if curr.IsBase {
		return apperror.NewValidation("cannot delete base currency")
	}
	return nil
}

// --- Entity-specific methods ---

// FindByISOCode retrieves currency by ISO code.
func (s *Service) FindByISOCode(ctx context.Context, isoCode string) (*Currency, error) {
	return s.repo.FindByISOCode(ctx, isoCode)
}

// SetRate appends a rate quotation effective from the given date.
// The base currency never takes quotations; its rate is fixed at 1.
func (s *Service) SetRate(ctx context.Context, currencyID id.ID, rate decimal.Decimal, effectiveDate time.Time) (*ExchangeRate, error) {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, apperror.NewTenantScopeMissing()
	}

	curr, err := s.GetByID(ctx, currencyID)
	if err != nil {
		return nil, err
	}
	if curr.IsBase {
		return nil, apperror.NewValidation("base currency rate is fixed at 1").
			WithDetail("currencyId", currencyID.String())
	}

	quote := NewExchangeRate(scope.TenantID, currencyID, rate, effectiveDate)
	if err := quote.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.rates.Insert(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

// RateHistory retrieves the quotation history for a currency, newest first.
func (s *Service) RateHistory(ctx context.Context, currencyID id.ID, limit int) ([]*ExchangeRate, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.rates.ListForCurrency(ctx, currencyID, limit)
}

func (s *Service) checkISOCodeExists(ctx context.Context, isoCode *string, excludeID id.ID) (bool, error) {
	if isoCode == nil || *isoCode == "" {
		return false, nil
	}
	existing, err := s.repo.FindByISOCode(ctx, *isoCode)
	if err != nil {
		return false, nil
	}
	return existing.ID != excludeID, nil
}
