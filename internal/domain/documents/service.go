package documents

import (
	"context"
	"fmt"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/security"
	"saldo/internal/core/tenant"
	"saldo/internal/core/tx"
	"saldo/internal/domain"
	"saldo/pkg/logger"
)

// Service owns the draft side of the document lifecycle: create, edit,
// list, soft-delete. Transitions (confirm, receive, pay, cancel) run
// through the posting coordinator, which this service deliberately does
// not know about.
type Service struct {
	repo      Repository
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Document]
}

// NewService creates a document service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Document](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Document] {
	return s.hooks
}

// CreateDraft persists a new document in draft. Numbers are not assigned
// here; the numerator runs at confirmation so cancelled drafts never
// consume a reference.
func (s *Service) CreateDraft(ctx context.Context, doc *Document) error {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return apperror.NewTenantScopeMissing()
	}

	// Drafts are created as drafts regardless of what the caller set.
	doc.Status = StatusDraft
	doc.Attempt = 0
	doc.TenantID = scope.TenantID
	doc.CreatedBy = security.GetUserID(ctx)
	for i := range doc.Lines {
		doc.Lines[i].TenantID = scope.TenantID
		doc.Lines[i].DocumentID = doc.ID
		doc.Lines[i].Fulfilled = 0
	}
	doc.RecalculateTotals()

	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "document draft created",
		"id", doc.ID,
		"kind", doc.Kind)

	return nil
}

// GetByID retrieves a document with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// UpdateDraft replaces header fields and lines of a draft document.
func (s *Service) UpdateDraft(ctx context.Context, doc *Document) error {
	current, err := s.repo.GetByID(ctx, doc.ID)
	if err != nil {
		return err
	}
	if err := current.CanModify(); err != nil {
		return err
	}

	// Status, attempt and fulfillment never change through draft edits.
	doc.Status = current.Status
	doc.Attempt = current.Attempt
	doc.Kind = current.Kind
	doc.UpdatedBy = security.GetUserID(ctx)
	for i := range doc.Lines {
		doc.Lines[i].TenantID = current.TenantID
		doc.Lines[i].DocumentID = doc.ID
		doc.Lines[i].Fulfilled = 0
	}
	doc.RecalculateTotals()

	if err := s.hooks.RunBeforeUpdate(ctx, doc); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, doc); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}

	return nil
}

// Delete soft-deletes a draft. Confirmed documents are cancelled or
// reversed, never deleted.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if doc.Status != StatusDraft {
		return apperror.NewInvalidTransition(string(doc.Kind), string(doc.Status), "delete")
	}
	return s.repo.Delete(ctx, docID)
}

// List retrieves documents with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Document], error) {
	return s.repo.List(ctx, filter)
}
