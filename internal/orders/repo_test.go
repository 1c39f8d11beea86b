package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

type recordingTables struct {
	table  string
	query  backend.Query
	rows   any
	patch  map[string]any
	filter backend.Filter
}

func (r *recordingTables) Select(_ context.Context, table string, q backend.Query, _ any) error {
	r.table, r.query = table, q
	return nil
}

func (r *recordingTables) Insert(_ context.Context, table string, rows any) (int, error) {
	r.table, r.rows = table, rows
	return 1, nil
}

func (r *recordingTables) Update(_ context.Context, table string, patch map[string]any, filter backend.Filter) error {
	r.table, r.patch, r.filter = table, patch, filter
	return nil
}

func (r *recordingTables) Delete(_ context.Context, table string, filter backend.Filter) error {
	r.table, r.filter = table, filter
	return nil
}

func TestRepositoryQueries(t *testing.T) {
	tables := &recordingTables{}
	repo, err := NewRepository(tables)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = repo.ListByCustomer(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, models.TableOrders, tables.table)
	assert.Equal(t, []backend.Condition{{Column: "customer_id", Value: int64(7)}}, tables.query.Filter.Conditions())
	assert.Equal(t, []backend.OrderBy{{Column: "placed_at", Desc: true}}, tables.query.Order)

	_, err = repo.ListWithCustomer(ctx)
	require.NoError(t, err)
	assert.True(t, tables.query.Filter.IsEmpty())
	require.Len(t, tables.query.Embeds, 1)
	assert.Equal(t, backend.Embed{Relation: "customer", Table: models.TableCustomerProfiles, Columns: []string{"name"}}, tables.query.Embeds[0])

	require.NoError(t, repo.InsertItems(ctx, []models.OrderItem{{OrderID: 1}, {OrderID: 1}}))
	assert.Equal(t, models.TableOrderItems, tables.table)
	assert.Len(t, *tables.rows.(*[]models.OrderItem), 2)

	require.NoError(t, repo.SetStatus(ctx, 4, enums.OrderStatusFinished))
	assert.Equal(t, map[string]any{"status": "finished"}, tables.patch)
	assert.Equal(t, []backend.Condition{{Column: "id", Value: int64(4)}}, tables.filter.Conditions())

	require.NoError(t, repo.DeleteHeader(ctx, 4))
	assert.Equal(t, models.TableOrders, tables.table)
}
