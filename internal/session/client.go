// Package session tracks the backend session of one browser and the identity
// and profile derived from it.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/backend"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

// Listener is invoked after every session transition; sess is nil once signed out.
type Listener func(ctx context.Context, sess *backend.Session)

// Subscription stops listener delivery.
type Subscription struct {
	once   sync.Once
	cancel func()
}

func (s *Subscription) Unsubscribe() {
	if s == nil || s.cancel == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Client is the auth surface seen by one browser. It keeps that browser's
// session in a Store and notifies listeners on every change.
type Client struct {
	sid   string
	auth  backend.Auth
	store Store
	logg  *logger.Logger
	now   func() time.Time

	mu        sync.Mutex
	loaded    bool
	current   *backend.Session
	listeners map[int]Listener
	nextID    int
}

type ClientParams struct {
	SID    string
	Auth   backend.Auth
	Store  Store
	Logger *logger.Logger
	Now    func() time.Time
}

func NewClient(params ClientParams) (*Client, error) {
	if strings.TrimSpace(params.SID) == "" {
		return nil, fmt.Errorf("browser session id is required")
	}
	if params.Auth == nil {
		return nil, fmt.Errorf("backend auth is required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Client{
		sid:       params.SID,
		auth:      params.Auth,
		store:     params.Store,
		logg:      params.Logger,
		now:       params.Now,
		listeners: map[int]Listener{},
	}, nil
}

func (c *Client) ID() string {
	return c.sid
}

// CurrentSession returns the browser's session, refreshing it once when the
// access token has expired. A failed refresh signs the browser out locally.
func (c *Client) CurrentSession(ctx context.Context) (*backend.Session, error) {
	c.mu.Lock()
	if err := c.loadLocked(ctx); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	sess := c.current
	if sess == nil || !sess.Expired(c.now()) {
		c.mu.Unlock()
		return clone(sess), nil
	}

	refreshed, err := c.auth.Refresh(ctx, *sess)
	if err != nil || refreshed == nil {
		if err != nil {
			c.logg.WarnErr(ctx, "session.refresh_failed", err)
		}
		c.current = nil
		if clearErr := c.store.Clear(ctx, c.sid); clearErr != nil {
			c.logg.WarnErr(ctx, "session.clear_failed", clearErr)
		}
		listeners := c.listenersLocked()
		c.mu.Unlock()
		notify(ctx, listeners, nil)
		return nil, nil
	}

	c.current = refreshed
	if err := c.store.Save(ctx, c.sid, refreshed); err != nil {
		c.logg.WarnErr(ctx, "session.save_failed", err)
	}
	listeners := c.listenersLocked()
	c.mu.Unlock()
	notify(ctx, listeners, clone(refreshed))
	return clone(refreshed), nil
}

// AccessToken returns the current access token, or "" when signed out.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	sess, err := c.CurrentSession(ctx)
	if err != nil || sess == nil {
		return "", err
	}
	return sess.AccessToken, nil
}

func (c *Client) OnChange(listener Listener) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = listener
	return &Subscription{cancel: func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}}
}

func (c *Client) SignUp(ctx context.Context, creds backend.Credentials) (*backend.Identity, error) {
	identity, err := c.auth.SignUp(ctx, creds)
	if err != nil {
		return nil, backend.AsRemote(err, "sign-up failed")
	}
	return identity, nil
}

// Authenticate signs in without making the session current.
func (c *Client) Authenticate(ctx context.Context, creds backend.Credentials) (*backend.Session, error) {
	sess, err := c.auth.SignInWithPassword(ctx, creds)
	if err != nil {
		return nil, backend.AsRemote(err, "sign-in failed")
	}
	if sess == nil {
		return nil, pkgerrors.Invariant("sign-in returned no session")
	}
	return sess, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, creds backend.Credentials) error {
	sess, err := c.Authenticate(ctx, creds)
	if err != nil {
		return err
	}
	return c.Adopt(ctx, sess)
}

// Adopt makes sess the browser's session and notifies listeners.
func (c *Client) Adopt(ctx context.Context, sess *backend.Session) error {
	if sess == nil {
		return fmt.Errorf("session is required")
	}
	c.mu.Lock()
	c.loaded = true
	c.current = clone(sess)
	if err := c.store.Save(ctx, c.sid, sess); err != nil {
		c.mu.Unlock()
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist session")
	}
	listeners := c.listenersLocked()
	c.mu.Unlock()
	notify(ctx, listeners, clone(sess))
	return nil
}

// SignOut always clears the local session; the remote sign-out error, if
// any, is returned afterwards.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	if err := c.loadLocked(ctx); err != nil {
		c.logg.WarnErr(ctx, "session.load_failed", err)
	}
	sess := c.current
	c.current = nil
	c.loaded = true
	if err := c.store.Clear(ctx, c.sid); err != nil {
		c.logg.WarnErr(ctx, "session.clear_failed", err)
	}
	listeners := c.listenersLocked()
	c.mu.Unlock()
	notify(ctx, listeners, nil)

	if sess == nil {
		return nil
	}
	return c.Revoke(ctx, sess)
}

// Revoke ends sess at the backend without touching the browser's session.
func (c *Client) Revoke(ctx context.Context, sess *backend.Session) error {
	if sess == nil {
		return nil
	}
	if err := c.auth.SignOut(ctx, sess.AccessToken); err != nil {
		return backend.AsRemote(err, "sign-out failed")
	}
	return nil
}

func (c *Client) RequestOneTimeCode(ctx context.Context, email string) error {
	if err := c.auth.RequestOneTimeCode(ctx, email); err != nil {
		return backend.AsRemote(err, "could not send the code")
	}
	return nil
}

// VerifyOneTimeCode returns the verified session without making it current.
func (c *Client) VerifyOneTimeCode(ctx context.Context, email, code string) (*backend.Session, error) {
	sess, err := c.auth.VerifyOneTimeCode(ctx, email, code)
	if err != nil {
		return nil, backend.AsRemote(err, "invalid or expired code")
	}
	return sess, nil
}

// SetPassword changes the password of sess, or of the current session when sess is nil.
func (c *Client) SetPassword(ctx context.Context, sess *backend.Session, password string) error {
	if sess == nil {
		current, err := c.CurrentSession(ctx)
		if err != nil {
			return err
		}
		if current == nil {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
		}
		sess = current
	}
	if err := c.auth.SetPassword(ctx, sess.AccessToken, password); err != nil {
		return backend.AsRemote(err, "could not update the password")
	}
	return nil
}

func (c *Client) loadLocked(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	sess, err := c.store.Load(ctx, c.sid)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	c.current = sess
	c.loaded = true
	return nil
}

func (c *Client) listenersLocked() []Listener {
	out := make([]Listener, 0, len(c.listeners))
	for id := 0; id < c.nextID; id++ {
		if l, ok := c.listeners[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

func notify(ctx context.Context, listeners []Listener, sess *backend.Session) {
	for _, l := range listeners {
		l(ctx, sess)
	}
}

func clone(sess *backend.Session) *backend.Session {
	if sess == nil {
		return nil
	}
	cp := *sess
	return &cp
}
