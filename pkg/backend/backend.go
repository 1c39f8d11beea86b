// Package backend describes the managed data/auth service the print shop
// delegates persistence and authentication to. Drivers live in the hosted and
// embedded subpackages.
package backend

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Identity is the externally authenticated principal.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Session is an authenticated backend session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Identity     Identity  `json:"identity"`
}

// expirySkew refreshes sessions slightly before the backend would reject them.
const expirySkew = 10 * time.Second

// Expired reports whether the access token should no longer be presented.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(expirySkew).Before(s.ExpiresAt)
}

type Credentials struct {
	Email    string
	Password string
}

// Auth is the authentication surface of the backend.
type Auth interface {
	// SignUp creates an identity. The identity may be nil when the backend
	// accepted the request without returning one.
	SignUp(ctx context.Context, creds Credentials) (*Identity, error)
	SignInWithPassword(ctx context.Context, creds Credentials) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	// RequestOneTimeCode never creates identities.
	RequestOneTimeCode(ctx context.Context, email string) error
	VerifyOneTimeCode(ctx context.Context, email, code string) (*Session, error)
	SetPassword(ctx context.Context, accessToken, password string) error
	Refresh(ctx context.Context, session Session) (*Session, error)
}

// Tables is the row-store surface of the backend. Calls run with the access
// token found in ctx; row-level authorization is enforced by the backend.
type Tables interface {
	// Select decodes matching rows into dest, a pointer to a slice, or a
	// pointer to a struct when q.Single is set.
	Select(ctx context.Context, table string, q Query, dest any) error
	// Insert writes rows (pointer to a struct or to a slice of structs) and
	// overwrites them with the stored representation. It returns how many rows
	// came back.
	Insert(ctx context.Context, table string, rows any) (int, error)
	// Update applies patch to the rows matching filter. An empty filter is refused.
	Update(ctx context.Context, table string, patch map[string]any, filter Filter) error
	// Delete removes the rows matching filter. An empty filter is refused.
	Delete(ctx context.Context, table string, filter Filter) error
}

// Service bundles both surfaces of one backend.
type Service interface {
	Auth() Auth
	Tables() Tables
	Ping(ctx context.Context) error
}
