package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/metrics"
)

func TestFilterIsImmutable(t *testing.T) {
	base := Eq("customer_id", int64(7))
	withStatus := base.Eq("status", "pending")

	assert.Len(t, base.Conditions(), 1)
	assert.Len(t, withStatus.Conditions(), 2)
	assert.True(t, Filter{}.IsEmpty())
	assert.False(t, base.IsEmpty())
}

func TestQueryValidateRejectsUnsafeIdentifiers(t *testing.T) {
	ok := Query{
		Columns: []string{"id", "placed_at"},
		Filter:  Eq("customer_id", 1),
		Order:   []OrderBy{{Column: "placed_at", Desc: true}},
		Embeds:  []Embed{{Relation: "customer", Table: "customer_profiles", Columns: []string{"name"}}},
	}
	require.NoError(t, ok.Validate())

	bad := []Query{
		{Columns: []string{"id; drop table orders"}},
		{Filter: Eq("Status", "x")},
		{Order: []OrderBy{{Column: "placed_at desc"}}},
		{Embeds: []Embed{{Relation: "customer", Table: "customer profiles"}}},
	}
	for _, q := range bad {
		assert.Error(t, q.Validate())
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	assert.True(t, (*Session)(nil).Expired(now))
	assert.False(t, (&Session{}).Expired(now))
	assert.True(t, (&Session{ExpiresAt: now.Add(5 * time.Second)}).Expired(now))
	assert.False(t, (&Session{ExpiresAt: now.Add(time.Hour)}).Expired(now))
}

func TestAccessTokenContext(t *testing.T) {
	ctx := context.Background()
	_, ok := AccessTokenFromContext(ctx)
	assert.False(t, ok)

	assert.Equal(t, ctx, WithAccessToken(ctx, ""))

	token, ok := AccessTokenFromContext(WithAccessToken(ctx, "jwt"))
	assert.True(t, ok)
	assert.Equal(t, "jwt", token)
}

func TestErrorClassification(t *testing.T) {
	notFound := NewError(http.StatusNotFound, "PGRST116", "no rows returned")
	assert.True(t, IsNotFound(fmt.Errorf("fetch profile: %w", notFound)))
	assert.True(t, IsClientError(notFound))
	assert.False(t, IsNotFound(errors.New("x")))

	assert.Equal(t, "no rows returned", Message(notFound, "fallback"))
	assert.Equal(t, "fallback", Message(nil, "fallback"))
	assert.Equal(t, "bad gateway", (&Error{Status: http.StatusBadGateway}).Error())
	assert.Equal(t, 404, notFound.RemoteStatus())
}

func TestAsRemote(t *testing.T) {
	assert.Nil(t, AsRemote(nil, "x"))

	validation := pkgerrors.Validation("bad input")
	assert.Same(t, validation, AsRemote(validation, "x"))

	be := &Error{Status: http.StatusConflict, Code: "23503", Message: `insert or update on table "order_items" violates foreign key constraint`, Hint: "check material"}
	err := AsRemote(be, "failed to create items")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeRemoteCall, typed.Code())
	assert.Equal(t, be.Message, typed.Message())
	assert.Equal(t, remoteDetails{Status: 409, Code: "23503", Hint: "check material"}, typed.Details())
	assert.ErrorIs(t, err, be)

	canceled := pkgerrors.As(AsRemote(context.Canceled, "request cancelled"))
	require.NotNil(t, canceled)
	assert.Equal(t, "request cancelled", canceled.Message())
}

type stubService struct {
	tables *stubTables
}

func (s *stubService) Auth() Auth                 { return nil }
func (s *stubService) Tables() Tables             { return s.tables }
func (s *stubService) Ping(context.Context) error { return nil }

type stubTables struct {
	err error
}

func (s *stubTables) Select(context.Context, string, Query, any) error { return s.err }
func (s *stubTables) Insert(context.Context, string, any) (int, error) { return 1, s.err }
func (s *stubTables) Update(context.Context, string, map[string]any, Filter) error {
	return s.err
}
func (s *stubTables) Delete(context.Context, string, Filter) error { return s.err }

func TestInstrumentRecordsCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewBackendMetrics(reg)
	tables := &stubTables{}
	svc := Instrument(&stubService{tables: tables}, m)

	ctx := context.Background()
	require.NoError(t, svc.Tables().Select(ctx, "materials", Query{}, nil))
	tables.err = errors.New("boom")
	_, err := svc.Tables().Insert(ctx, "orders", nil)
	require.Error(t, err)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range mfs {
		if mf.GetName() != "backend_calls_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(2), total)
	assert.Same(t, svc.Tables(), svc.Tables())
}

func TestInstrumentWithoutMetricsReturnsService(t *testing.T) {
	svc := &stubService{tables: &stubTables{}}
	assert.Same(t, Service(svc), Instrument(svc, nil))
}
