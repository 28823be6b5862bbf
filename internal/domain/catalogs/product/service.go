package product

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

// Service provides business logic for the Product catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Product]
	repo    Repository
	numbers numerator.Generator
}

// NewService creates a new Product service.
func NewService(repo Repository, txManager tx.Manager, numbers numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
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

func (s *Service) prepareForCreate(ctx context.Context, item *Product) error {
	if item.Code == "" {
		code, err := s.numbers.NextNumber(ctx, numerator.DefaultConfig("PR"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate product code: %w", err)
		}
		item.Code = code
	}
	return s.checkUnique(ctx, item)
}

func (s *Service) checkUnique(ctx context.Context, item *Product) error {
	if item.SKU != nil && *item.SKU != "" {
		if taken, err := s.skuTaken(ctx, *item.SKU, item.ID); err != nil {
			return err
		} else if taken {
			return apperror.NewConflict("product with this SKU already exists").
				WithDetail("sku", *item.SKU)
		}
	}

	if item.Barcode != nil && *item.Barcode != "" {
		if taken, err := s.barcodeTaken(ctx, *item.Barcode, item.ID); err != nil {
			return err
		} else if taken {
			return apperror.NewConflict("product with this barcode already exists").
				WithDetail("barcode", *item.Barcode)
		}
	}

	return nil
}

// FindBySKU retrieves a product by SKU.
func (s *Service) FindBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.FindBySKU(ctx, sku)
}

// FindByBarcode retrieves a product by barcode.
func (s *Service) FindByBarcode(ctx context.Context, barcode string) (*Product, error) {
	return s.repo.FindByBarcode(ctx, barcode)
}

func (s *Service) skuTaken(ctx context.Context, sku string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != excludeID, nil
}

func (s *Service) barcodeTaken(ctx context.Context, barcode string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != excludeID, nil
}
