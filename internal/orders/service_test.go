package orders

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

type fakeRepo struct {
	orders map[int64]models.Order
	items  []models.OrderItem
	nextID int64
	calls  []string

	headerErr    error
	headerNoRows bool
	itemsErr     error
	deleteErr    error
	statusErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[int64]models.Order{}}
}

func (f *fakeRepo) InsertHeader(_ context.Context, order *models.Order) (int, error) {
	f.calls = append(f.calls, "insert_header")
	if f.headerErr != nil {
		return 0, f.headerErr
	}
	if f.headerNoRows {
		return 0, nil
	}
	f.nextID++
	order.ID = f.nextID
	order.Status = enums.OrderStatusPending
	order.PlacedAt = time.Date(2025, 6, 1, 12, 0, int(f.nextID), 0, time.UTC)
	f.orders[order.ID] = *order
	return 1, nil
}

func (f *fakeRepo) InsertItems(_ context.Context, items []models.OrderItem) error {
	f.calls = append(f.calls, "insert_items")
	if f.itemsErr != nil {
		return f.itemsErr
	}
	f.items = append(f.items, items...)
	return nil
}

func (f *fakeRepo) DeleteHeader(_ context.Context, orderID int64) error {
	f.calls = append(f.calls, "delete_header")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.orders, orderID)
	return nil
}

func (f *fakeRepo) sorted(keep func(models.Order) bool) []models.Order {
	out := []models.Order{}
	for _, o := range f.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.After(out[j].PlacedAt) })
	return out
}

func (f *fakeRepo) ListByCustomer(_ context.Context, customerID int64) ([]models.Order, error) {
	return f.sorted(func(o models.Order) bool { return o.CustomerID == customerID }), nil
}

func (f *fakeRepo) ListWithCustomer(context.Context) ([]models.Order, error) {
	return f.sorted(func(models.Order) bool { return true }), nil
}

func (f *fakeRepo) SetStatus(_ context.Context, orderID int64, status enums.OrderStatus) error {
	f.calls = append(f.calls, "set_status")
	if f.statusErr != nil {
		return f.statusErr
	}
	o := f.orders[orderID]
	o.Status = status
	f.orders[orderID] = o
	return nil
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, nil)
	require.NoError(t, err)
	return svc
}

var customer = &models.CustomerProfile{ID: 7, Name: "Ana"}

func validDraft(n int) Draft {
	d := Draft{Notes: "  matte finish "}
	for i := 0; i < n; i++ {
		d.Items = append(d.Items, ItemDraft{PartName: "Gear", MaterialID: 3, Quantity: i + 1})
	}
	return d
}

func TestSubmitCreatesHeaderAndAllItems(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		repo := newFakeRepo()
		order, err := newTestService(t, repo).Submit(context.Background(), customer, validDraft(n))
		require.NoError(t, err)

		require.Len(t, repo.orders, 1)
		require.Len(t, repo.items, n)
		for _, it := range repo.items {
			assert.Equal(t, order.ID, it.OrderID)
		}
		assert.Equal(t, []string{"insert_header", "insert_items"}, repo.calls)
		stored := repo.orders[order.ID]
		assert.EqualValues(t, 7, stored.CustomerID)
		require.NotNil(t, stored.Notes)
		assert.Equal(t, "matte finish", *stored.Notes)
		assert.Len(t, order.Items, n)
	}
}

func TestSubmitOmitsBlankNotes(t *testing.T) {
	repo := newFakeRepo()
	draft := validDraft(1)
	draft.Notes = "   "
	order, err := newTestService(t, repo).Submit(context.Background(), customer, draft)
	require.NoError(t, err)
	assert.Nil(t, order.Notes)
}

func TestSubmitValidationMakesNoRemoteCall(t *testing.T) {
	cases := map[string]struct {
		profile *models.CustomerProfile
		draft   Draft
	}{
		"missing profile": {nil, validDraft(1)},
		"no items":        {customer, Draft{}},
		"blank part":      {customer, Draft{Items: []ItemDraft{{PartName: "  ", MaterialID: 1, Quantity: 1}}}},
		"unset material":  {customer, Draft{Items: []ItemDraft{{PartName: "Gear", MaterialID: 0, Quantity: 1}}}},
		"zero quantity":   {customer, Draft{Items: []ItemDraft{{PartName: "Gear", MaterialID: 1, Quantity: 0}}}},
		"second item bad": {customer, Draft{Items: []ItemDraft{{PartName: "Gear", MaterialID: 1, Quantity: 1}, {PartName: "Nut", MaterialID: 1, Quantity: -2}}}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newFakeRepo()
			_, err := newTestService(t, repo).Submit(context.Background(), tc.profile, tc.draft)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
			assert.Empty(t, repo.calls)
		})
	}
}

func TestSubmitHeaderFailureStops(t *testing.T) {
	repo := newFakeRepo()
	repo.headerErr = &backend.Error{Status: 403, Code: "42501", Message: "new row violates row-level security policy"}

	_, err := newTestService(t, repo).Submit(context.Background(), customer, validDraft(2))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeRemoteCall))
	assert.Equal(t, "new row violates row-level security policy", pkgerrors.As(err).Message())
	assert.Equal(t, []string{"insert_header"}, repo.calls)
}

func TestSubmitHeaderWithoutRowIsInvariantViolation(t *testing.T) {
	repo := newFakeRepo()
	repo.headerNoRows = true

	_, err := newTestService(t, repo).Submit(context.Background(), customer, validDraft(1))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvariant))
	assert.Equal(t, "insert returned no data", pkgerrors.As(err).Message())
	assert.Equal(t, []string{"insert_header"}, repo.calls)
}

func TestSubmitItemFailureDeletesHeader(t *testing.T) {
	repo := newFakeRepo()
	itemErr := &backend.Error{Status: 409, Code: "23503", Message: `insert or update on table "order_items" violates foreign key constraint`}
	repo.itemsErr = itemErr

	order, err := newTestService(t, repo).Submit(context.Background(), customer, validDraft(3))
	assert.Nil(t, order)
	require.Error(t, err)

	var be *backend.Error
	require.True(t, errors.As(err, &be))
	assert.Same(t, itemErr, be)
	assert.Equal(t, []string{"insert_header", "insert_items", "delete_header"}, repo.calls)
	assert.Empty(t, repo.orders)
}

func TestSubmitCompensationFailureIsNotSurfaced(t *testing.T) {
	repo := newFakeRepo()
	itemErr := &backend.Error{Status: 400, Message: "items rejected"}
	repo.itemsErr = itemErr
	repo.deleteErr = &backend.Error{Status: 500, Message: "delete failed"}

	_, err := newTestService(t, repo).Submit(context.Background(), customer, validDraft(1))
	require.Error(t, err)
	assert.Equal(t, "items rejected", pkgerrors.As(err).Message())
	assert.Len(t, repo.orders, 1, "orphaned header stays behind")
}

func TestListingsNewestFirst(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()
	other := &models.CustomerProfile{ID: 8}

	for _, p := range []*models.CustomerProfile{customer, other, customer} {
		_, err := svc.Submit(ctx, p, validDraft(1))
		require.NoError(t, err)
	}

	mine, err := svc.ListForCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.True(t, mine[0].PlacedAt.After(mine[1].PlacedAt))

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].PlacedAt.After(all[i].PlacedAt))
	}

	_, err = svc.ListForCustomer(ctx, 0)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	repo := newFakeRepo()
	err := newTestService(t, repo).UpdateStatus(context.Background(), 1, enums.OrderStatus("shipped"))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, repo.calls)
}

func TestBoardOptimisticStatusChange(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()
	order, err := svc.Submit(ctx, customer, validDraft(1))
	require.NoError(t, err)

	board := NewBoard(svc)
	rows, err := board.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	updated, err := board.ChangeStatus(ctx, order.ID, enums.OrderStatusInProduction)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, enums.OrderStatusInProduction, updated.Status)

	// the board is patched in place, not re-fetched
	repo.orders[order.ID] = models.Order{ID: order.ID, Status: enums.OrderStatusCancelled}
	rows, err = board.Orders(ctx)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusInProduction, rows[0].Status)

	fresh, err := board.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, fresh[0].Status)
}

func TestBoardFailedStatusChangeLeavesBoard(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()
	order, err := svc.Submit(ctx, customer, validDraft(1))
	require.NoError(t, err)

	board := NewBoard(svc)
	_, err = board.Load(ctx)
	require.NoError(t, err)

	repo.statusErr = &backend.Error{Status: 403, Message: "permission denied for table orders"}
	_, err = board.ChangeStatus(ctx, order.ID, enums.OrderStatusFinished)
	require.Error(t, err)
	assert.Equal(t, "permission denied for table orders", pkgerrors.As(err).Message())

	rows, _ := board.Orders(ctx)
	assert.Equal(t, enums.OrderStatusPending, rows[0].Status)
}

func TestBoardResetRefetches(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()
	order, err := svc.Submit(ctx, customer, validDraft(1))
	require.NoError(t, err)

	board := NewBoard(svc)
	_, err = board.Load(ctx)
	require.NoError(t, err)

	repo.orders[order.ID] = models.Order{ID: order.ID, Status: enums.OrderStatusFinished}
	board.Reset()
	rows, err := board.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.OrderStatusFinished, rows[0].Status)
}
