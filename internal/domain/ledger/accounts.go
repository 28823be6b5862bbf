package ledger

import (
	"context"
	"fmt"
	"time"

	"saldo/internal/core/apperror"
	"saldo/internal/core/numerator"
	"saldo/internal/core/tx"
	"saldo/internal/domain"
)

// AccountService provides business logic for the chart of accounts.
// Uses composition with domain.CatalogService for common CRUD operations.
type AccountService struct {
	*domain.CatalogService[*Account]
	repo    AccountRepository
	numbers numerator.Generator
}

// NewAccountService creates a new chart-of-accounts service.
func NewAccountService(repo AccountRepository, txManager tx.Manager, numbers numerator.Generator) *AccountService {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Account]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "account",
	})

	svc := &AccountService{
		CatalogService: base,
		repo:           repo,
		numbers:        numbers,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeDelete(svc.blockReferencedDelete)

	return svc
}

func (s *AccountService) prepareForCreate(ctx context.Context, item *Account) error {
	if item.Code == "" {
		code, err := s.numbers.NextNumber(ctx, numerator.DefaultConfig("AC"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate account code: %w", err)
		}
		item.Code = code
	}
	if item.NaturalSide == "" {
		item.NaturalSide = naturalSideFor(item.Type)
	}
	return nil
}

// blockReferencedDelete keeps posted history navigable: an account with
// journal lines can only be marked, never hard-deleted.
func (s *AccountService) blockReferencedDelete(ctx context.Context, item *Account) error {
	referenced, err := s.repo.Referenced(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("check account references: %w", err)
	}
	if referenced {
		return apperror.NewBusinessRule(apperror.CodeConflict, "account with journal lines cannot be deleted").
			WithDetail("accountId", item.ID.String())
	}
	return nil
}
