package store

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

// Service provides business logic for the Store catalog.
type Service struct {
	*domain.CatalogService[*Store]
	repo      Repository
	txManager tx.Manager
	numbers   numerator.Generator
}

// NewService creates a new Store service.
func NewService(repo Repository, txManager tx.Manager, numbers numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Store]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "store",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		txManager:      txManager,
		numbers:        numbers,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeDelete(svc.blockDefaultDelete)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, item *Store) error {
	if item.Code == "" {
		code, err := s.numbers.NextNumber(ctx, numerator.DefaultConfig("ST"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate store code: %w", err)
		}
		item.Code = code
	}
	return nil
}

func (s *Service) blockDefaultDelete(ctx context.Context, item *Store) error {
	if item.IsDefault {
		return apperror.NewBusinessRule(apperror.CodeConflict, "default store cannot be deleted").
			WithDetail("storeId", item.ID.String())
	}
	return nil
}

// GetDefault retrieves the tenant's default store.
func (s *Service) GetDefault(ctx context.Context) (*Store, error) {
	return s.repo.GetDefault(ctx)
}

// SetDefault flags one store as the tenant default, clearing the flag
// everywhere else in the same transaction.
func (s *Service) SetDefault(ctx context.Context, storeID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetForUpdate(ctx, storeID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("store", storeID.String())
			}
			return err
		}
		if err := s.repo.ClearDefault(ctx); err != nil {
			return fmt.Errorf("clear default store: %w", err)
		}
		item.IsDefault = true
		item.Touch()
		if err := s.repo.Update(ctx, item); err != nil {
			return fmt.Errorf("set default store: %w", err)
		}
		return nil
	})
}
