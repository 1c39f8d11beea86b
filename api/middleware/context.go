package middleware

import (
	"context"

	"github.com/angelmondragon/printshop-backend/internal/workspace"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
)

type contextKey string

const (
	ctxWorkspace contextKey = "workspace"
	ctxProfile   contextKey = "customer_profile"
)

// WorkspaceFromContext returns the browser workspace resolved by Workspace.
func WorkspaceFromContext(ctx context.Context) *workspace.Workspace {
	if ctx == nil {
		return nil
	}
	ws, _ := ctx.Value(ctxWorkspace).(*workspace.Workspace)
	return ws
}

// ProfileFromContext returns the profile checked by RequireProfile.
func ProfileFromContext(ctx context.Context) *models.CustomerProfile {
	if ctx == nil {
		return nil
	}
	profile, _ := ctx.Value(ctxProfile).(*models.CustomerProfile)
	return profile
}

func WithWorkspace(ctx context.Context, ws *workspace.Workspace) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxWorkspace, ws)
}

func withProfile(ctx context.Context, profile *models.CustomerProfile) context.Context {
	return context.WithValue(ctx, ctxProfile, profile)
}
