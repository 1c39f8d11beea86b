package backend

import (
	"context"
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/metrics"
)

// Instrument wraps a service so every call is recorded in m.
func Instrument(svc Service, m *metrics.BackendMetrics) Service {
	if m == nil {
		return svc
	}
	return &instrumented{
		svc:    svc,
		auth:   &instrumentedAuth{next: svc.Auth(), m: m},
		tables: InstrumentTables(svc.Tables(), m),
	}
}

// InstrumentTables wraps only the table surface.
func InstrumentTables(t Tables, m *metrics.BackendMetrics) Tables {
	if m == nil {
		return t
	}
	return &instrumentedTables{next: t, m: m}
}

type instrumented struct {
	svc    Service
	auth   Auth
	tables Tables
}

func (i *instrumented) Auth() Auth                     { return i.auth }
func (i *instrumented) Tables() Tables                 { return i.tables }
func (i *instrumented) Ping(ctx context.Context) error { return i.svc.Ping(ctx) }

type instrumentedTables struct {
	next Tables
	m    *metrics.BackendMetrics
}

func (t *instrumentedTables) Select(ctx context.Context, table string, q Query, dest any) error {
	start := time.Now()
	err := t.next.Select(ctx, table, q, dest)
	t.m.Observe("select", table, time.Since(start), err)
	return err
}

func (t *instrumentedTables) Insert(ctx context.Context, table string, rows any) (int, error) {
	start := time.Now()
	n, err := t.next.Insert(ctx, table, rows)
	t.m.Observe("insert", table, time.Since(start), err)
	return n, err
}

func (t *instrumentedTables) Update(ctx context.Context, table string, patch map[string]any, filter Filter) error {
	start := time.Now()
	err := t.next.Update(ctx, table, patch, filter)
	t.m.Observe("update", table, time.Since(start), err)
	return err
}

func (t *instrumentedTables) Delete(ctx context.Context, table string, filter Filter) error {
	start := time.Now()
	err := t.next.Delete(ctx, table, filter)
	t.m.Observe("delete", table, time.Since(start), err)
	return err
}

type instrumentedAuth struct {
	next Auth
	m    *metrics.BackendMetrics
}

const authLabel = "auth"

func (a *instrumentedAuth) SignUp(ctx context.Context, creds Credentials) (*Identity, error) {
	start := time.Now()
	id, err := a.next.SignUp(ctx, creds)
	a.m.Observe("sign_up", authLabel, time.Since(start), err)
	return id, err
}

func (a *instrumentedAuth) SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error) {
	start := time.Now()
	s, err := a.next.SignInWithPassword(ctx, creds)
	a.m.Observe("sign_in", authLabel, time.Since(start), err)
	return s, err
}

func (a *instrumentedAuth) SignOut(ctx context.Context, accessToken string) error {
	start := time.Now()
	err := a.next.SignOut(ctx, accessToken)
	a.m.Observe("sign_out", authLabel, time.Since(start), err)
	return err
}

func (a *instrumentedAuth) RequestOneTimeCode(ctx context.Context, email string) error {
	start := time.Now()
	err := a.next.RequestOneTimeCode(ctx, email)
	a.m.Observe("request_code", authLabel, time.Since(start), err)
	return err
}

func (a *instrumentedAuth) VerifyOneTimeCode(ctx context.Context, email, code string) (*Session, error) {
	start := time.Now()
	s, err := a.next.VerifyOneTimeCode(ctx, email, code)
	a.m.Observe("verify_code", authLabel, time.Since(start), err)
	return s, err
}

func (a *instrumentedAuth) SetPassword(ctx context.Context, accessToken, password string) error {
	start := time.Now()
	err := a.next.SetPassword(ctx, accessToken, password)
	a.m.Observe("set_password", authLabel, time.Since(start), err)
	return err
}

func (a *instrumentedAuth) Refresh(ctx context.Context, session Session) (*Session, error) {
	start := time.Now()
	s, err := a.next.Refresh(ctx, session)
	a.m.Observe("refresh", authLabel, time.Since(start), err)
	return s, err
}
