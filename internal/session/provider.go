package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/google/uuid"
)

// State is what the rest of the application knows about the signed-in user.
type State struct {
	Identity  *backend.Identity       `json:"identity"`
	Profile   *models.CustomerProfile `json:"profile"`
	IsLoading bool                    `json:"is_loading"`
}

// ProfileFetcher loads the one customer profile owned by an identity.
type ProfileFetcher interface {
	ByIdentity(ctx context.Context, identityID uuid.UUID) (*models.CustomerProfile, error)
}

// Provider derives identity and profile from a Client's session changes.
type Provider struct {
	client   *Client
	profiles ProfileFetcher
	logg     *logger.Logger

	mu      sync.RWMutex
	state   State
	sub     *Subscription
	started bool
}

func NewProvider(client *Client, profiles ProfileFetcher, logg *logger.Logger) (*Provider, error) {
	if client == nil {
		return nil, fmt.Errorf("session client is required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile fetcher is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Provider{
		client:   client,
		profiles: profiles,
		logg:     logg,
		state:    State{IsLoading: true},
	}, nil
}

// Start retrieves the existing session and subscribes to later changes.
// A failed lookup is logged and treated as signed out.
func (p *Provider) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	sess, err := p.client.CurrentSession(ctx)
	if err != nil {
		p.logg.Error(ctx, "session.initial_lookup_failed", err)
		sess = nil
	}

	sub := p.client.OnChange(p.handle)
	p.mu.Lock()
	p.sub = sub
	p.mu.Unlock()

	p.handle(ctx, sess)
}

// Close stops listening for session changes.
func (p *Provider) Close() {
	p.mu.Lock()
	sub := p.sub
	p.sub = nil
	p.mu.Unlock()
	sub.Unsubscribe()
}

func (p *Provider) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st := p.state
	if st.Identity != nil {
		id := *st.Identity
		st.Identity = &id
	}
	if st.Profile != nil {
		profile := *st.Profile
		st.Profile = &profile
	}
	return st
}

func (p *Provider) handle(ctx context.Context, sess *backend.Session) {
	var identity *backend.Identity
	if sess != nil {
		id := sess.Identity
		identity = &id
	}

	p.mu.Lock()
	prev := p.state.Identity
	p.state.Identity = identity
	p.state.IsLoading = false
	if identity == nil {
		p.state.Profile = nil
		p.mu.Unlock()
		return
	}
	changed := prev == nil || prev.ID != identity.ID
	if changed {
		p.state.Profile = nil
	}
	p.mu.Unlock()

	if !changed {
		return
	}

	ctx = p.logg.WithIdentityID(ctx, identity.ID.String())
	profile, err := p.profiles.ByIdentity(backend.WithAccessToken(ctx, sess.AccessToken), identity.ID)
	if err != nil {
		p.logg.Error(ctx, "session.profile_fetch_failed", err)
		profile = nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Identity != nil && p.state.Identity.ID == identity.ID {
		p.state.Profile = profile
	}
}
