// Package workspace keeps the per-browser state of the service: the tracked
// session, its provider, the navigation state, the order draft and the admin
// order board.
package workspace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/internal/session"
	"github.com/angelmondragon/printshop-backend/internal/views"
	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

const defaultIdleTimeout = 30 * time.Minute

// Workspace is everything the service remembers about one browser.
type Workspace struct {
	ID        string
	Client    *session.Client
	Provider  *session.Provider
	Navigator *views.Navigator
	Board     *orders.Board
	Draft     *orders.DraftPad

	start    sync.Once
	sub      *session.Subscription
	lastUsed time.Time
}

// State is shorthand for the provider's current state.
func (w *Workspace) State() session.State {
	return w.Provider.State()
}

func (w *Workspace) close() {
	w.sub.Unsubscribe()
	w.Provider.Close()
}

type Params struct {
	Auth        backend.Auth
	Store       session.Store
	Profiles    session.ProfileFetcher
	Orders      orders.Service
	Logger      *logger.Logger
	IdleTimeout time.Duration
	Now         func() time.Time
}

// Registry hands out one Workspace per browser session id. Workspaces idle
// longer than the idle timeout are closed on the next Acquire.
type Registry struct {
	params Params

	mu      sync.Mutex
	entries map[string]*Workspace
}

func NewRegistry(params Params) (*Registry, error) {
	if params.Auth == nil {
		return nil, fmt.Errorf("backend auth is required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile fetcher is required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service is required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.IdleTimeout <= 0 {
		params.IdleTimeout = defaultIdleTimeout
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Registry{params: params, entries: map[string]*Workspace{}}, nil
}

// Acquire returns the workspace of sid, creating and starting it on first use.
func (r *Registry) Acquire(ctx context.Context, sid string) (*Workspace, error) {
	sid = strings.TrimSpace(sid)
	if sid == "" {
		return nil, fmt.Errorf("browser session id is required")
	}

	now := r.params.Now()
	r.mu.Lock()
	evicted := r.evictIdleLocked(now)
	ws, ok := r.entries[sid]
	if !ok {
		var err error
		ws, err = r.build(sid)
		if err != nil {
			r.mu.Unlock()
			closeAll(evicted)
			return nil, err
		}
		r.entries[sid] = ws
	}
	ws.lastUsed = now
	r.mu.Unlock()

	closeAll(evicted)
	if len(evicted) > 0 {
		r.params.Logger.Debug(r.params.Logger.WithField(ctx, "count", len(evicted)), "workspace.evicted")
	}

	ws.start.Do(func() { ws.Provider.Start(ctx) })
	return ws, nil
}

// Release closes and forgets the workspace of sid.
func (r *Registry) Release(sid string) {
	r.mu.Lock()
	ws, ok := r.entries[sid]
	delete(r.entries, sid)
	r.mu.Unlock()
	if ok {
		ws.close()
	}
}

// Len reports how many workspaces are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close closes every workspace.
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*Workspace, 0, len(r.entries))
	for _, ws := range r.entries {
		all = append(all, ws)
	}
	r.entries = map[string]*Workspace{}
	r.mu.Unlock()
	closeAll(all)
}

func (r *Registry) build(sid string) (*Workspace, error) {
	client, err := session.NewClient(session.ClientParams{
		SID:    sid,
		Auth:   r.params.Auth,
		Store:  r.params.Store,
		Logger: r.params.Logger,
		Now:    r.params.Now,
	})
	if err != nil {
		return nil, err
	}
	provider, err := session.NewProvider(client, r.params.Profiles, r.params.Logger)
	if err != nil {
		return nil, err
	}

	ws := &Workspace{
		ID:        sid,
		Client:    client,
		Provider:  provider,
		Navigator: views.NewNavigator(),
		Board:     orders.NewBoard(r.params.Orders),
		Draft:     orders.NewDraftPad(),
	}
	// signing out forgets everything screen-local
	ws.sub = client.OnChange(func(_ context.Context, sess *backend.Session) {
		if sess != nil {
			return
		}
		ws.Navigator.Reset()
		ws.Draft.Reset()
		ws.Board.Reset()
	})
	return ws, nil
}

func (r *Registry) evictIdleLocked(now time.Time) []*Workspace {
	var evicted []*Workspace
	for sid, ws := range r.entries {
		if now.Sub(ws.lastUsed) > r.params.IdleTimeout {
			evicted = append(evicted, ws)
			delete(r.entries, sid)
		}
	}
	return evicted
}

func closeAll(list []*Workspace) {
	for _, ws := range list {
		ws.close()
	}
}
