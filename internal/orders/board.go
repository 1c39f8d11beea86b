package orders

import (
	"context"
	"sync"

	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

// Board is the admin screen's own copy of the order list. A successful status
// change patches the copy in place without re-fetching; nothing reconciles it
// with later changes made elsewhere until the next Load.
type Board struct {
	svc Service

	mu     sync.RWMutex
	orders []models.Order
	loaded bool
}

func NewBoard(svc Service) *Board {
	return &Board{svc: svc}
}

// Load replaces the board with a fresh fetch.
func (b *Board) Load(ctx context.Context) ([]models.Order, error) {
	orders, err := b.svc.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = orders
	b.loaded = true
	return cloneOrders(b.orders), nil
}

// Orders returns the board, loading it on first use.
func (b *Board) Orders(ctx context.Context) ([]models.Order, error) {
	b.mu.RLock()
	if b.loaded {
		defer b.mu.RUnlock()
		return cloneOrders(b.orders), nil
	}
	b.mu.RUnlock()
	return b.Load(ctx)
}

// ChangeStatus updates the order remotely and, only on success, in the board.
// The returned order is nil when the board does not hold it.
func (b *Board) ChangeStatus(ctx context.Context, orderID int64, status enums.OrderStatus) (*models.Order, error) {
	if err := b.svc.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.orders {
		if b.orders[i].ID == orderID {
			b.orders[i].Status = status
			order := b.orders[i]
			return &order, nil
		}
	}
	return nil, nil
}

func cloneOrders(in []models.Order) []models.Order {
	return append([]models.Order{}, in...)
}

// Reset drops the board so the next Orders call fetches again.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = nil
	b.loaded = false
}
