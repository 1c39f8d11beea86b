package backend

import "context"

type accessTokenKey struct{}

// WithAccessToken stores the caller's access token for subsequent table calls.
func WithAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessTokenFromContext returns the caller's access token, if any.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	token, ok := ctx.Value(accessTokenKey{}).(string)
	return token, ok && token != ""
}
