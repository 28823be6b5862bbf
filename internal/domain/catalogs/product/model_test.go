package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saldo/internal/core/id"
	"saldo/internal/core/types"
)

func TestProductValidate(t *testing.T) {
	tenantID := id.New()

	valid := func() *Product {
		return NewProduct(tenantID, "PR-001", "Steel bolt M8", TypeGoods)
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, valid().Validate(context.Background()))
	})

	cases := []struct {
		name   string
		mutate func(*Product)
	}{
		{"missing name", func(p *Product) { p.Name = "" }},
		{"unknown type", func(p *Product) { p.Type = "virtual" }},
		{"missing unit", func(p *Product) { p.Unit = "" }},
		{"negative default price", func(p *Product) { p.DefaultPrice = types.MustMoney("-1") }},
		{"non-numeric barcode", func(p *Product) { bc := "4006381ABC"; p.Barcode = &bc }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid()
			tc.mutate(p)
			assert.Error(t, p.Validate(context.Background()))
		})
	}
}

func TestProductIsPhysical(t *testing.T) {
	tenantID := id.New()
	assert.True(t, NewProduct(tenantID, "PR-001", "Bolt", TypeGoods).IsPhysical())
	assert.True(t, NewProduct(tenantID, "PR-002", "Sheet metal", TypeMaterial).IsPhysical())
	assert.False(t, NewProduct(tenantID, "PR-003", "Delivery", TypeService).IsPhysical())
}
