package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/domain/filter"
)

func newTestRepo() *BaseCatalogRepo[any] {
	return NewBaseCatalogRepo[any](nil, "test_table", []string{"id", "col1"}, func() any { return nil })
}

func TestApplyAdvancedFiltersOperators(t *testing.T) {
	repo := newTestRepo()
	tenantID := id.New()

	tests := []struct {
		name     string
		item     filter.Item
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "greater or equal",
			item:     filter.Item{Field: "col1", Operator: filter.GreaterOrEqual, Value: 10},
			wantSQL:  "SELECT id, col1 FROM test_table WHERE tenant_id = $1 AND col1 >= $2",
			wantArgs: []any{tenantID, 10},
		},
		{
			name:     "less or equal",
			item:     filter.Item{Field: "col1", Operator: filter.LessOrEqual, Value: 5},
			wantSQL:  "SELECT id, col1 FROM test_table WHERE tenant_id = $1 AND col1 <= $2",
			wantArgs: []any{tenantID, 5},
		},
		{
			name:     "contains",
			item:     filter.Item{Field: "col1", Operator: filter.Contains, Value: "bolt"},
			wantSQL:  "SELECT id, col1 FROM test_table WHERE tenant_id = $1 AND col1 ILIKE $2",
			wantArgs: []any{tenantID, "%bolt%"},
		},
		{
			name:     "is null",
			item:     filter.Item{Field: "col1", Operator: filter.IsNull},
			wantSQL:  "SELECT id, col1 FROM test_table WHERE tenant_id = $1 AND col1 IS NULL",
			wantArgs: []any{tenantID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseQ := repo.baseSelect(tenantID)
			q, err := repo.applyAdvancedFilters(baseQ, []filter.Item{tt.item})
			require.NoError(t, err)

			sql, args, err := q.ToSql()
			require.NoError(t, err)

			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestApplyAdvancedFiltersRejectsUnknownColumn(t *testing.T) {
	repo := newTestRepo()

	_, err := repo.applyAdvancedFilters(repo.baseSelect(id.New()), []filter.Item{
		{Field: "password_hash", Operator: filter.Equal, Value: "x"},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestParseOrderBy(t *testing.T) {
	repo := newTestRepo()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "name ASC"},
		{in: "col1", want: "col1 ASC"},
		{in: "-col1", want: "col1 DESC"},
		{in: "+code", want: "code ASC"},
		{in: "drop table", wantErr: true},
		{in: "-", wantErr: true},
	}

	for _, tt := range tests {
		got, err := repo.parseOrderBy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "orderBy %q", tt.in)
			continue
		}
		require.NoError(t, err, "orderBy %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}
