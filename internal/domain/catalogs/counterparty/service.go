package counterparty

import (
	"context"
	"fmt"
	"time"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/numerator"
	"saldo/internal/core/tx"
	"saldo/internal/domain"
)

// Service provides business logic for the Counterparty catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Counterparty]
	repo    Repository
	numbers numerator.Generator
}

// NewService creates a new Counterparty service.
func NewService(repo Repository, txManager tx.Manager, numbers numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Counterparty]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "counterparty",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numbers:        numbers,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.checkUnique)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, cp *Counterparty) error {
	if cp.Code == "" {
		code, err := s.numbers.NextNumber(ctx, numerator.DefaultConfig("CP"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate counterparty code: %w", err)
		}
		cp.Code = code
	}
	return s.checkUnique(ctx, cp)
}

func (s *Service) checkUnique(ctx context.Context, cp *Counterparty) error {
	if cp.TaxID == nil || *cp.TaxID == "" {
		return nil
	}
	taken, err := s.taxIDTaken(ctx, *cp.TaxID, cp.ID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.NewConflict("counterparty with this tax id already exists").
			WithDetail("taxId", *cp.TaxID)
	}
	return nil
}

// FindByTaxID retrieves a counterparty by tax id.
func (s *Service) FindByTaxID(ctx context.Context, taxID string) (*Counterparty, error) {
	return s.repo.FindByTaxID(ctx, taxID)
}

func (s *Service) taxIDTaken(ctx context.Context, taxID string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindByTaxID(ctx, taxID)
	if err != nil {
		// Not found is fine; anything else propagates.
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != excludeID, nil
}
