package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"saldo/internal/core/entity"
	"saldo/internal/core/id"
)

type testCatalog struct {
	entity.Catalog
	SKU  *string `db:"sku" json:"sku"`
	Note string  `db:"-" json:"note"`
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[testCatalog]()

	expected := []string{"id", "tenant_id", "deletion_mark", "version", "attributes", "code", "name", "sku"}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
	assert.NotContains(t, cols, "note")
}

func TestStructToMap(t *testing.T) {
	sku := "SKU-001"
	cat := testCatalog{
		Catalog: entity.Catalog{
			BaseCatalog: entity.BaseCatalog{
				BaseEntity: entity.BaseEntity{
					ID:           id.New(),
					TenantID:     id.New(),
					DeletionMark: true,
					Version:      5,
				},
			},
			Code: "PR-000001",
			Name: "Steel bolt",
		},
		SKU:  &sku,
		Note: "ignored",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, cat.TenantID, m["tenant_id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "PR-000001", m["code"])
	assert.Equal(t, "Steel bolt", m["name"])
	assert.Equal(t, &sku, m["sku"])
	assert.NotContains(t, m, "note")
}

func TestStructToMapNilAndNonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))

	var ptr *testCatalog
	assert.Nil(t, StructToMap(ptr))
}
