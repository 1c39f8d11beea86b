package hosted

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/printshop-backend/pkg/backend"
)

type authAPI struct {
	c *Client
}

type userBody struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type sessionBody struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	User         *userBody `json:"user"`
}

func (u *userBody) identity() (*backend.Identity, error) {
	if u == nil || u.ID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return nil, fmt.Errorf("backend returned malformed identity id %q: %w", u.ID, err)
	}
	return &backend.Identity{ID: id, Email: u.Email}, nil
}

func (s *sessionBody) session(now time.Time) (*backend.Session, error) {
	if s == nil || s.AccessToken == "" {
		return nil, nil
	}
	identity, err := s.User.identity()
	if err != nil {
		return nil, err
	}
	out := &backend.Session{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
	if identity != nil {
		out.Identity = *identity
	}
	switch {
	case s.ExpiresAt > 0:
		out.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		out.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return out, nil
}

func (a *authAPI) SignUp(ctx context.Context, creds backend.Credentials) (*backend.Identity, error) {
	resp, err := a.c.request(ctx, "").
		SetBody(map[string]string{"email": creds.Email, "password": creds.Password}).
		Post(authPrefix + "/signup")
	if err != nil {
		return nil, transportError(err)
	}
	if resp.IsError() {
		return nil, decodeAuthError(resp)
	}

	// With auto-confirm the body is a session wrapping the user; otherwise it
	// is the bare user.
	var body struct {
		userBody
		User *userBody `json:"user"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("decoding sign-up response: %w", err)
	}
	if body.User != nil {
		return body.User.identity()
	}
	return body.userBody.identity()
}

func (a *authAPI) SignInWithPassword(ctx context.Context, creds backend.Credentials) (*backend.Session, error) {
	return a.grant(ctx, "password", map[string]string{"email": creds.Email, "password": creds.Password})
}

func (a *authAPI) Refresh(ctx context.Context, session backend.Session) (*backend.Session, error) {
	if strings.TrimSpace(session.RefreshToken) == "" {
		return nil, backend.NewError(http.StatusBadRequest, "refresh_token_not_found", "refresh token is missing")
	}
	return a.grant(ctx, "refresh_token", map[string]string{"refresh_token": session.RefreshToken})
}

func (a *authAPI) grant(ctx context.Context, grantType string, body map[string]string) (*backend.Session, error) {
	var out sessionBody
	resp, err := a.c.request(ctx, "").
		SetQueryParam("grant_type", grantType).
		SetBody(body).
		SetResult(&out).
		Post(authPrefix + "/token")
	if err != nil {
		return nil, transportError(err)
	}
	if resp.IsError() {
		return nil, decodeAuthError(resp)
	}
	return out.session(time.Now())
}

func (a *authAPI) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	resp, err := a.c.request(ctx, accessToken).Post(authPrefix + "/logout")
	if err != nil {
		return transportError(err)
	}
	if resp.IsError() {
		return decodeAuthError(resp)
	}
	return nil
}

func (a *authAPI) RequestOneTimeCode(ctx context.Context, email string) error {
	resp, err := a.c.request(ctx, "").
		SetBody(map[string]any{"email": email, "create_user": false}).
		Post(authPrefix + "/otp")
	if err != nil {
		return transportError(err)
	}
	if resp.IsError() {
		return decodeAuthError(resp)
	}
	return nil
}

func (a *authAPI) VerifyOneTimeCode(ctx context.Context, email, code string) (*backend.Session, error) {
	var out sessionBody
	resp, err := a.c.request(ctx, "").
		SetBody(map[string]string{"type": "email", "email": email, "token": code}).
		SetResult(&out).
		Post(authPrefix + "/verify")
	if err != nil {
		return nil, transportError(err)
	}
	if resp.IsError() {
		return nil, decodeAuthError(resp)
	}
	return out.session(time.Now())
}

func (a *authAPI) SetPassword(ctx context.Context, accessToken, password string) error {
	if accessToken == "" {
		return backend.NewError(http.StatusUnauthorized, "no_authorization", "an authenticated session is required")
	}
	resp, err := a.c.request(ctx, accessToken).
		SetBody(map[string]string{"password": password}).
		Put(authPrefix + "/user")
	if err != nil {
		return transportError(err)
	}
	if resp.IsError() {
		return decodeAuthError(resp)
	}
	return nil
}
