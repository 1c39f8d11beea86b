package embedded

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/auth/session"
	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	"github.com/angelmondragon/printshop-backend/pkg/migrate"
	redisclient "github.com/angelmondragon/printshop-backend/pkg/redis"
)

type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *captureSender) SendCode(_ context.Context, email, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.codes == nil {
		c.codes = map[string]string{}
	}
	c.codes[email] = code
	return nil
}

func (c *captureSender) last(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[email]
}

type harness struct {
	svc    *Service
	db     *db.Client
	sender *captureSender
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(db.SQLiteDSN("file:"+uuid.NewString()+"?mode=memory&cache=shared")), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	client := db.Wrap(conn)
	require.NoError(t, migrate.AutoMigrate(context.Background(), client))

	mr := miniredis.RunT(t)
	rdb := redisclient.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = rdb.Close() })

	jwtCfg := config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "printshop-embedded",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
	sessions, err := session.NewManager(rdb, jwtCfg)
	require.NoError(t, err)

	sender := &captureSender{}
	svc, err := New(Deps{
		DB:       client,
		Redis:    rdb,
		Sessions: sessions,
		JWT:      jwtCfg,
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		OneTimeCode: config.OneTimeCodeConfig{TTL: time.Minute, Digits: 6},
		Sender:      sender,
	})
	require.NoError(t, err)
	return &harness{svc: svc, db: client, sender: sender}
}

func (h *harness) signUp(t *testing.T, email, password string) *backend.Session {
	t.Helper()
	ctx := context.Background()
	_, err := h.svc.Auth().SignUp(ctx, backend.Credentials{Email: email, Password: password})
	require.NoError(t, err)
	sess, err := h.svc.Auth().SignInWithPassword(ctx, backend.Credentials{Email: email, Password: password})
	require.NoError(t, err)
	return sess
}

func (h *harness) profile(t *testing.T, sess *backend.Session, role enums.Role) models.CustomerProfile {
	t.Helper()
	p := models.CustomerProfile{IdentityID: sess.Identity.ID, Name: "Ana", Email: sess.Identity.Email, Role: role}
	require.NoError(t, h.db.DB().Create(&p).Error)
	return p
}

func (h *harness) material(t *testing.T) models.Material {
	t.Helper()
	m := models.Material{Name: "PLA Basic", Type: "PLA", Color: "Black", PricePerGram: decimal.RequireFromString("0.12"), StockGrams: 1000}
	require.NoError(t, h.db.DB().Create(&m).Error)
	return m
}

func as(sess *backend.Session) context.Context {
	return backend.WithAccessToken(context.Background(), sess.AccessToken)
}

func backendError(t *testing.T, err error) *backend.Error {
	t.Helper()
	var be *backend.Error
	require.True(t, errors.As(err, &be), "expected backend error, got %v", err)
	return be
}

func TestSignUpAndSignIn(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	identity, err := h.svc.Auth().SignUp(ctx, backend.Credentials{Email: " Ana@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "ana@example.com", identity.Email)

	_, err = h.svc.Auth().SignUp(ctx, backend.Credentials{Email: "ana@example.com", Password: "secret1"})
	assert.Equal(t, "user_already_exists", backendError(t, err).Code)

	_, err = h.svc.Auth().SignUp(ctx, backend.Credentials{Email: "bia@example.com", Password: "123"})
	be := backendError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, be.Status)
	assert.Equal(t, "weak_password", be.Code)

	_, err = h.svc.Auth().SignUp(ctx, backend.Credentials{Email: "not-an-email", Password: "secret1"})
	assert.Equal(t, "validation_failed", backendError(t, err).Code)

	sess, err := h.svc.Auth().SignInWithPassword(ctx, backend.Credentials{Email: "ANA@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, identity.ID, sess.Identity.ID)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.False(t, sess.Expired(time.Now()))

	_, err = h.svc.Auth().SignInWithPassword(ctx, backend.Credentials{Email: "ana@example.com", Password: "wrong-pass"})
	assert.Equal(t, "Invalid login credentials", backend.Message(err, ""))

	_, err = h.svc.Auth().SignInWithPassword(ctx, backend.Credentials{Email: "ghost@example.com", Password: "secret1"})
	assert.Equal(t, "invalid_credentials", backendError(t, err).Code)
}

func TestRefreshRotatesTokens(t *testing.T) {
	h := newHarness(t)
	sess := h.signUp(t, "ana@example.com", "secret1")
	ctx := context.Background()

	next, err := h.svc.Auth().Refresh(ctx, *sess)
	require.NoError(t, err)
	assert.NotEqual(t, sess.RefreshToken, next.RefreshToken)
	assert.Equal(t, sess.Identity.ID, next.Identity.ID)

	_, err = h.svc.Auth().Refresh(ctx, *sess)
	assert.Equal(t, "refresh_token_not_found", backendError(t, err).Code)

	_, err = h.svc.Auth().Refresh(ctx, backend.Session{AccessToken: next.AccessToken})
	assert.Equal(t, "refresh_token_not_found", backendError(t, err).Code)
}

func TestSignOutRevokesAccessToken(t *testing.T) {
	h := newHarness(t)
	sess := h.signUp(t, "ana@example.com", "secret1")
	h.material(t)

	var materials []models.Material
	require.NoError(t, h.svc.Tables().Select(as(sess), models.TableMaterials, backend.Query{}, &materials))
	require.Len(t, materials, 1)

	require.NoError(t, h.svc.Auth().SignOut(context.Background(), sess.AccessToken))
	require.NoError(t, h.svc.Auth().SignOut(context.Background(), ""))

	err := h.svc.Tables().Select(as(sess), models.TableMaterials, backend.Query{}, &materials)
	be := backendError(t, err)
	assert.Equal(t, http.StatusUnauthorized, be.Status)
	assert.Equal(t, "session_not_found", be.Code)
}

func TestOneTimeCodeResetsPassword(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "ana@example.com", "secret1")
	ctx := context.Background()

	err := h.svc.Auth().RequestOneTimeCode(ctx, "ghost@example.com")
	assert.Equal(t, "otp_disabled", backendError(t, err).Code)

	require.NoError(t, h.svc.Auth().RequestOneTimeCode(ctx, "Ana@Example.com"))
	code := h.sender.last("ana@example.com")
	require.Len(t, code, 6)

	_, err = h.svc.Auth().VerifyOneTimeCode(ctx, "ana@example.com", "000000x")
	assert.Equal(t, "otp_expired", backendError(t, err).Code)

	// a failed attempt burns the code
	_, err = h.svc.Auth().VerifyOneTimeCode(ctx, "ana@example.com", code)
	assert.Equal(t, "otp_expired", backendError(t, err).Code)

	require.NoError(t, h.svc.Auth().RequestOneTimeCode(ctx, "ana@example.com"))
	sess, err := h.svc.Auth().VerifyOneTimeCode(ctx, "ana@example.com", h.sender.last("ana@example.com"))
	require.NoError(t, err)
	require.NotNil(t, sess)

	err = h.svc.Auth().SetPassword(ctx, sess.AccessToken, "abc")
	assert.Equal(t, "weak_password", backendError(t, err).Code)

	require.NoError(t, h.svc.Auth().SetPassword(ctx, sess.AccessToken, "brand-new"))
	require.NoError(t, h.svc.Auth().SignOut(ctx, sess.AccessToken))

	_, err = h.svc.Auth().SignInWithPassword(ctx, backend.Credentials{Email: "ana@example.com", Password: "secret1"})
	require.Error(t, err)
	_, err = h.svc.Auth().SignInWithPassword(ctx, backend.Credentials{Email: "ana@example.com", Password: "brand-new"})
	require.NoError(t, err)

	err = h.svc.Auth().SetPassword(ctx, sess.AccessToken, "another-one")
	assert.Equal(t, http.StatusUnauthorized, backendError(t, err).Status)
}

func TestTablesRequireToken(t *testing.T) {
	h := newHarness(t)
	var materials []models.Material
	err := h.svc.Tables().Select(context.Background(), models.TableMaterials, backend.Query{}, &materials)
	assert.Equal(t, http.StatusUnauthorized, backendError(t, err).Status)

	err = h.svc.Tables().Select(backend.WithAccessToken(context.Background(), "garbage"), models.TableMaterials, backend.Query{}, &materials)
	assert.Equal(t, "bad_jwt", backendError(t, err).Code)
}

func TestCustomerProfileRules(t *testing.T) {
	h := newHarness(t)
	ana := h.signUp(t, "ana@example.com", "secret1")
	bia := h.signUp(t, "bia@example.com", "secret1")
	h.profile(t, bia, enums.RoleCustomer)

	admin := models.CustomerProfile{IdentityID: ana.Identity.ID, Name: "Ana", Email: "ana@example.com", Role: enums.RoleAdmin}
	_, err := h.svc.Tables().Insert(as(ana), models.TableCustomerProfiles, &admin)
	assert.Equal(t, http.StatusForbidden, backendError(t, err).Status)

	other := models.CustomerProfile{IdentityID: bia.Identity.ID, Name: "Ana", Email: "ana@example.com"}
	_, err = h.svc.Tables().Insert(as(ana), models.TableCustomerProfiles, &other)
	assert.Equal(t, "42501", backendError(t, err).Code)

	phone := "11987654321"
	own := models.CustomerProfile{IdentityID: ana.Identity.ID, Name: "Ana", Email: "ana@example.com", Phone: &phone}
	n, err := h.svc.Tables().Insert(as(ana), models.TableCustomerProfiles, &own)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NotZero(t, own.ID)
	assert.Equal(t, enums.RoleCustomer, own.Role)

	var profiles []models.CustomerProfile
	require.NoError(t, h.svc.Tables().Select(as(ana), models.TableCustomerProfiles, backend.Query{}, &profiles))
	require.Len(t, profiles, 1)
	assert.Equal(t, ana.Identity.ID, profiles[0].IdentityID)

	var single models.CustomerProfile
	err = h.svc.Tables().Select(as(ana), models.TableCustomerProfiles, backend.Query{
		Filter: backend.Eq("identity_id", bia.Identity.ID),
		Single: true,
	}, &single)
	assert.True(t, backend.IsNotFound(err))
}

func TestOrderLifecycle(t *testing.T) {
	h := newHarness(t)
	customer := h.signUp(t, "ana@example.com", "secret1")
	adminSess := h.signUp(t, "boss@example.com", "secret1")
	profile := h.profile(t, customer, enums.RoleCustomer)
	h.profile(t, adminSess, enums.RoleAdmin)
	material := h.material(t)

	notes := "rush"
	order := models.Order{CustomerID: profile.ID, Notes: &notes}
	n, err := h.svc.Tables().Insert(as(customer), models.TableOrders, &order)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.NotZero(t, order.ID)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.True(t, order.TotalValue.IsZero())
	assert.False(t, order.PlacedAt.IsZero())

	items := []models.OrderItem{
		{OrderID: order.ID, PartName: "Gear", MaterialID: material.ID, Quantity: 2},
		{OrderID: order.ID, PartName: "Bracket", MaterialID: material.ID, Quantity: 1},
	}
	n, err = h.svc.Tables().Insert(as(customer), models.TableOrderItems, &items)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NotZero(t, items[1].ID)

	bad := []models.OrderItem{{OrderID: order.ID, PartName: "Ghost", MaterialID: 999, Quantity: 1}}
	_, err = h.svc.Tables().Insert(as(customer), models.TableOrderItems, &bad)
	assert.Equal(t, "23503", backendError(t, err).Code)

	// a material still named by order items cannot be deleted
	err = h.svc.Tables().Delete(as(adminSess), models.TableMaterials, backend.Eq("id", material.ID))
	assert.Equal(t, "23503", backendError(t, err).Code)
	var materials int64
	require.NoError(t, h.db.DB().Table(models.TableMaterials).Where("id = ?", material.ID).Count(&materials).Error)
	assert.Equal(t, int64(1), materials)

	var mine []models.Order
	require.NoError(t, h.svc.Tables().Select(as(customer), models.TableOrders, backend.Query{
		Order:  []backend.OrderBy{{Column: "placed_at", Desc: true}},
		Embeds: []backend.Embed{{Relation: "order_items", Table: models.TableOrderItems}},
	}, &mine))
	require.Len(t, mine, 1)
	assert.Len(t, mine[0].Items, 2)

	err = h.svc.Tables().Update(as(customer), models.TableOrders,
		map[string]any{"status": string(enums.OrderStatusFinished)}, backend.Eq("id", order.ID))
	assert.Equal(t, http.StatusForbidden, backendError(t, err).Status)

	require.NoError(t, h.svc.Tables().Update(as(adminSess), models.TableOrders,
		map[string]any{"status": string(enums.OrderStatusInProduction)}, backend.Eq("id", order.ID)))

	var all []models.Order
	require.NoError(t, h.svc.Tables().Select(as(adminSess), models.TableOrders, backend.Query{
		Embeds: []backend.Embed{{Relation: "customer", Table: models.TableCustomerProfiles, Columns: []string{"name"}}},
	}, &all))
	require.Len(t, all, 1)
	assert.Equal(t, enums.OrderStatusInProduction, all[0].Status)
	require.NotNil(t, all[0].Customer)
	assert.Equal(t, "Ana", all[0].Customer.Name)
	assert.Empty(t, all[0].Customer.Email)

	err = h.svc.Tables().Delete(as(customer), models.TableOrders, backend.Filter{})
	assert.ErrorIs(t, err, backend.ErrEmptyFilter)

	require.NoError(t, h.svc.Tables().Delete(as(customer), models.TableOrders, backend.Eq("id", order.ID)))

	var remaining int64
	require.NoError(t, h.db.DB().Table(models.TableOrderItems).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestCustomerCannotTouchForeignOrders(t *testing.T) {
	h := newHarness(t)
	ana := h.signUp(t, "ana@example.com", "secret1")
	bia := h.signUp(t, "bia@example.com", "secret1")
	h.profile(t, ana, enums.RoleCustomer)
	biaProfile := h.profile(t, bia, enums.RoleCustomer)
	material := h.material(t)

	foreign := models.Order{CustomerID: biaProfile.ID}
	_, err := h.svc.Tables().Insert(as(ana), models.TableOrders, &foreign)
	assert.Equal(t, http.StatusForbidden, backendError(t, err).Status)

	order := models.Order{CustomerID: biaProfile.ID}
	_, err = h.svc.Tables().Insert(as(bia), models.TableOrders, &order)
	require.NoError(t, err)

	items := []models.OrderItem{{OrderID: order.ID, PartName: "Gear", MaterialID: material.ID, Quantity: 1}}
	_, err = h.svc.Tables().Insert(as(ana), models.TableOrderItems, &items)
	assert.Equal(t, "42501", backendError(t, err).Code)

	var seen []models.Order
	require.NoError(t, h.svc.Tables().Select(as(ana), models.TableOrders, backend.Query{}, &seen))
	assert.Empty(t, seen)

	// scoped away rather than refused
	require.NoError(t, h.svc.Tables().Delete(as(ana), models.TableOrders, backend.Eq("id", order.ID)))
	var count int64
	require.NoError(t, h.db.DB().Table(models.TableOrders).Where("id = ?", order.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	m := models.Material{Name: "x", Type: "PLA", Color: "Red", PricePerGram: decimal.NewFromInt(1)}
	_, err = h.svc.Tables().Insert(as(ana), models.TableMaterials, &m)
	assert.Equal(t, http.StatusForbidden, backendError(t, err).Status)
}

func TestTablesRejectUnknownAndUnsafeNames(t *testing.T) {
	h := newHarness(t)
	sess := h.signUp(t, "ana@example.com", "secret1")

	var rows []map[string]any
	err := h.svc.Tables().Select(as(sess), models.TableAuthIdentities, backend.Query{}, &rows)
	assert.Equal(t, "42P01", backendError(t, err).Code)

	err = h.svc.Tables().Select(as(sess), "orders; drop table orders", backend.Query{}, &rows)
	require.Error(t, err)

	var orders []models.Order
	err = h.svc.Tables().Select(as(sess), models.TableOrders, backend.Query{
		Embeds: []backend.Embed{{Relation: "customer", Table: models.TableMaterials}},
	}, &orders)
	assert.Equal(t, "PGRST200", backendError(t, err).Code)
}

func TestPing(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.svc.Ping(context.Background()))
}
