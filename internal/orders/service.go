// Package orders covers order submission, the customer and admin listings,
// and admin status control.
package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

type Service interface {
	Submit(ctx context.Context, profile *models.CustomerProfile, draft Draft) (*models.Order, error)
	ListForCustomer(ctx context.Context, profileID int64) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

// Submit writes the order header and then its items in one batch. When the
// items fail, the header is deleted again on a best-effort basis and the
// item error is returned. There is no transaction spanning both writes.
func (s *service) Submit(ctx context.Context, profile *models.CustomerProfile, draft Draft) (*models.Order, error) {
	if profile == nil || profile.ID <= 0 {
		return nil, pkgerrors.Validation("customer profile is required")
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	order := models.Order{CustomerID: profile.ID}
	if notes := strings.TrimSpace(draft.Notes); notes != "" {
		order.Notes = &notes
	}

	n, err := s.repo.InsertHeader(ctx, &order)
	if err != nil {
		return nil, backend.AsRemote(err, "could not create the order")
	}
	if n == 0 || order.ID <= 0 {
		return nil, pkgerrors.Invariant("insert returned no data")
	}

	ctx = s.logg.WithField(ctx, "order_id", order.ID)
	items := make([]models.OrderItem, 0, len(draft.Items))
	for _, d := range draft.Items {
		items = append(items, models.OrderItem{
			OrderID:    order.ID,
			PartName:   strings.TrimSpace(d.PartName),
			MaterialID: d.MaterialID,
			Quantity:   d.Quantity,
		})
	}

	if err := s.repo.InsertItems(ctx, items); err != nil {
		if delErr := s.repo.DeleteHeader(ctx, order.ID); delErr != nil {
			s.logg.WarnErr(ctx, "orders.compensating_delete_failed", delErr)
		}
		return nil, backend.AsRemote(err, "could not add the order items")
	}

	order.Items = items
	s.logg.Info(s.logg.WithField(ctx, "item_count", len(items)), "orders.submitted")
	return &order, nil
}

// ListForCustomer returns the profile's own orders, newest first.
func (s *service) ListForCustomer(ctx context.Context, profileID int64) ([]models.Order, error) {
	if profileID <= 0 {
		return nil, pkgerrors.Validation("customer profile is required")
	}
	orders, err := s.repo.ListByCustomer(ctx, profileID)
	if err != nil {
		return nil, backend.AsRemote(err, "could not load orders")
	}
	return orders, nil
}

// ListAll returns every order with its customer's name, newest first.
func (s *service) ListAll(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.ListWithCustomer(ctx)
	if err != nil {
		return nil, backend.AsRemote(err, "could not load orders")
	}
	return orders, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error {
	if orderID <= 0 {
		return pkgerrors.Validation("order id is required")
	}
	if !status.IsValid() {
		return pkgerrors.Validation(fmt.Sprintf("invalid status %q", status))
	}
	if err := s.repo.SetStatus(ctx, orderID, status); err != nil {
		return backend.AsRemote(err, "could not update the status")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"order_id": orderID, "status": status.String()}), "orders.status_updated")
	return nil
}
