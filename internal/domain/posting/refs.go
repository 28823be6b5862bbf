package posting

import (
	"context"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/domain/documents"
)

// ReferenceChecker verifies that a document's catalog references resolve
// within the tenant before confirmation freezes them.
type ReferenceChecker interface {
	CheckDocument(ctx context.Context, doc *documents.Document) error
}

// Exister is the existence probe the catalog repositories satisfy.
type Exister interface {
	Exists(ctx context.Context, entityID id.ID) (bool, error)
}

// CatalogChecker checks products, stores and counterparties against
// their catalogs.
type CatalogChecker struct {
	Products       Exister
	Stores         Exister
	Counterparties Exister
}

// CheckDocument implements ReferenceChecker.
func (c *CatalogChecker) CheckDocument(ctx context.Context, doc *documents.Document) error {
	if c.Stores != nil && doc.Kind.MovesStock() {
		ok, err := c.Stores.Exists(ctx, doc.StoreID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewValidation("unknown store").
				WithDetail("storeId", doc.StoreID.String())
		}
	}

	if c.Counterparties != nil && !id.IsNil(doc.CounterpartyID) {
		ok, err := c.Counterparties.Exists(ctx, doc.CounterpartyID)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.NewValidation("unknown counterparty").
				WithDetail("counterpartyId", doc.CounterpartyID.String())
		}
	}

	if c.Products != nil {
		for i := range doc.Lines {
			line := &doc.Lines[i]
			ok, err := c.Products.Exists(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if !ok {
				return apperror.NewValidation("unknown product").
					WithDetail("lineNo", line.LineNo).
					WithDetail("productId", line.ProductID.String())
			}
		}
	}

	return nil
}
