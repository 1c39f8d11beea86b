package orders

import (
	"context"
	"fmt"

	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

// Repository is the row access used by the order flows. Errors are returned
// as the backend reported them.
type Repository interface {
	InsertHeader(ctx context.Context, order *models.Order) (int, error)
	InsertItems(ctx context.Context, items []models.OrderItem) error
	DeleteHeader(ctx context.Context, orderID int64) error
	ListByCustomer(ctx context.Context, customerID int64) ([]models.Order, error)
	ListWithCustomer(ctx context.Context) ([]models.Order, error)
	SetStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error
}

type repository struct {
	tables backend.Tables
}

func NewRepository(tables backend.Tables) (Repository, error) {
	if tables == nil {
		return nil, fmt.Errorf("backend tables are required")
	}
	return &repository{tables: tables}, nil
}

var newestFirst = []backend.OrderBy{{Column: "placed_at", Desc: true}}

func (r *repository) InsertHeader(ctx context.Context, order *models.Order) (int, error) {
	return r.tables.Insert(ctx, models.TableOrders, order)
}

func (r *repository) InsertItems(ctx context.Context, items []models.OrderItem) error {
	_, err := r.tables.Insert(ctx, models.TableOrderItems, &items)
	return err
}

func (r *repository) DeleteHeader(ctx context.Context, orderID int64) error {
	return r.tables.Delete(ctx, models.TableOrders, backend.Eq("id", orderID))
}

func (r *repository) ListByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.tables.Select(ctx, models.TableOrders, backend.Query{
		Filter: backend.Eq("customer_id", customerID),
		Order:  newestFirst,
	}, &orders)
	return orders, err
}

func (r *repository) ListWithCustomer(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.tables.Select(ctx, models.TableOrders, backend.Query{
		Order: newestFirst,
		Embeds: []backend.Embed{{
			Relation: "customer",
			Table:    models.TableCustomerProfiles,
			Columns:  []string{"name"},
		}},
	}, &orders)
	return orders, err
}

func (r *repository) SetStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error {
	return r.tables.Update(ctx, models.TableOrders,
		map[string]any{"status": status.String()},
		backend.Eq("id", orderID))
}
