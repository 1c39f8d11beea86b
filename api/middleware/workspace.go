package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/printshop-backend/api/responses"
	"github.com/angelmondragon/printshop-backend/internal/workspace"
	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

type workspaceSource interface {
	Acquire(ctx context.Context, sid string) (*workspace.Workspace, error)
}

// Workspace resolves the browser session cookie to its workspace and seeds the
// request context with the workspace and the current access token. Browsers
// without a valid cookie get a fresh one.
func Workspace(source workspaceSource, cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sid := ""
			if cookie, err := r.Cookie(cfg.CookieName); err == nil {
				sid = strings.TrimSpace(cookie.Value)
			}
			if _, err := uuid.Parse(sid); err != nil {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ws, err := source.Acquire(ctx, sid)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open workspace"))
				return
			}

			token, err := ws.Client.AccessToken(ctx)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session"))
				return
			}

			ctx = WithWorkspace(ctx, ws)
			if token != "" {
				ctx = backend.WithAccessToken(ctx, token)
			}
			if logg != nil {
				st := ws.State()
				if st.Identity != nil {
					ctx = logg.WithIdentityID(ctx, st.Identity.ID.String())
				}
				if st.Profile != nil {
					ctx = logg.WithActorRole(ctx, st.Profile.Role.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
