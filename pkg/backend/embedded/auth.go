package embedded

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	pkgauth "github.com/angelmondragon/printshop-backend/pkg/auth"
	"github.com/angelmondragon/printshop-backend/pkg/auth/session"
	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	redisclient "github.com/angelmondragon/printshop-backend/pkg/redis"
	"github.com/angelmondragon/printshop-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Error codes follow the hosted auth service so callers see the same shapes.
var (
	errInvalidCredentials = backend.NewError(http.StatusBadRequest, "invalid_credentials", "Invalid login credentials")
	errUserExists         = backend.NewError(http.StatusUnprocessableEntity, "user_already_exists", "User already registered")
	errInvalidEmail       = backend.NewError(http.StatusBadRequest, "validation_failed", "Unable to validate email address: invalid format")
	errOTPDisabled        = backend.NewError(http.StatusUnprocessableEntity, "otp_disabled", "Signups not allowed for otp")
	errOTPExpired         = backend.NewError(http.StatusForbidden, "otp_expired", "Token has expired or is invalid")
	errBadJWT             = backend.NewError(http.StatusUnauthorized, "bad_jwt", "invalid JWT: unable to parse or verify signature")
	errSessionNotFound    = backend.NewError(http.StatusUnauthorized, "session_not_found", "Session from session_id claim in JWT does not exist")
	errRefreshNotFound    = backend.NewError(http.StatusBadRequest, "refresh_token_not_found", "Invalid Refresh Token: Refresh Token Not Found")
)

type authService struct {
	s *Service
}

var _ backend.Auth = (*authService)(nil)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *authService) SignUp(ctx context.Context, creds backend.Credentials) (*backend.Identity, error) {
	email := normalizeEmail(creds.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errInvalidEmail
	}

	hash, err := security.HashPassword(creds.Password, a.s.password)
	if err != nil {
		if errors.Is(err, security.ErrWeakPassword) {
			return nil, backend.NewError(http.StatusUnprocessableEntity, "weak_password", err.Error())
		}
		return nil, err
	}

	identity := models.AuthIdentity{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := a.s.db.DB().WithContext(ctx).Create(&identity).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, errUserExists
		}
		return nil, err
	}

	ctx = a.s.logg.WithIdentityID(ctx, identity.ID.String())
	a.s.logg.Info(ctx, "embedded.auth.signup")
	return &backend.Identity{ID: identity.ID, Email: identity.Email}, nil
}

func (a *authService) SignInWithPassword(ctx context.Context, creds backend.Credentials) (*backend.Session, error) {
	identity, err := a.findByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	ok, err := security.VerifyPassword(creds.Password, identity.PasswordHash)
	if err != nil || !ok {
		return nil, errInvalidCredentials
	}
	return a.issue(ctx, identity)
}

func (a *authService) SignOut(ctx context.Context, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return nil
	}
	claims, err := pkgauth.ParseAccessTokenAllowExpired(a.s.jwt, accessToken)
	if err != nil {
		return errBadJWT
	}
	return a.s.sessions.Revoke(ctx, claims.ID)
}

func (a *authService) RequestOneTimeCode(ctx context.Context, email string) error {
	identity, err := a.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errOTPDisabled
		}
		return err
	}

	code, err := security.GenerateNumericCode(a.s.otp.Digits)
	if err != nil {
		return err
	}
	if err := a.s.redis.Set(ctx, a.s.redis.OneTimeCodeKey(identity.Email), code, a.s.otp.TTL); err != nil {
		return err
	}
	return a.s.sender.SendCode(ctx, identity.Email, code)
}

// VerifyOneTimeCode consumes the stored code whether or not it matches.
func (a *authService) VerifyOneTimeCode(ctx context.Context, email, code string) (*backend.Session, error) {
	email = normalizeEmail(email)
	stored, err := a.s.redis.GetDel(ctx, a.s.redis.OneTimeCodeKey(email))
	if err != nil {
		if errors.Is(err, redisclient.ErrNotFound) {
			return nil, errOTPExpired
		}
		return nil, err
	}
	if !security.CodesEqual(stored, strings.TrimSpace(code)) {
		return nil, errOTPExpired
	}

	identity, err := a.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errOTPExpired
		}
		return nil, err
	}
	return a.issue(ctx, identity)
}

func (a *authService) SetPassword(ctx context.Context, accessToken, password string) error {
	claims, err := a.s.authenticate(ctx, accessToken)
	if err != nil {
		return err
	}
	identityID, err := claims.IdentityID()
	if err != nil {
		return errBadJWT
	}

	hash, err := security.HashPassword(password, a.s.password)
	if err != nil {
		if errors.Is(err, security.ErrWeakPassword) {
			return backend.NewError(http.StatusUnprocessableEntity, "weak_password", err.Error())
		}
		return err
	}

	res := a.s.db.DB().WithContext(ctx).
		Model(&models.AuthIdentity{}).
		Where("id = ?", identityID).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return backend.NewError(http.StatusNotFound, "user_not_found", "User not found")
	}
	return nil
}

func (a *authService) Refresh(ctx context.Context, current backend.Session) (*backend.Session, error) {
	if strings.TrimSpace(current.RefreshToken) == "" {
		return nil, errRefreshNotFound
	}
	claims, err := pkgauth.ParseAccessTokenAllowExpired(a.s.jwt, current.AccessToken)
	if err != nil {
		return nil, errRefreshNotFound
	}
	identityID, err := claims.IdentityID()
	if err != nil {
		return nil, errRefreshNotFound
	}

	pair, err := a.s.sessions.Rotate(ctx, claims.ID, current.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, errRefreshNotFound
		}
		return nil, err
	}

	var identity models.AuthIdentity
	if err := a.s.db.DB().WithContext(ctx).Take(&identity, "id = ?", identityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = a.s.sessions.Revoke(ctx, pair.AccessID)
			return nil, errRefreshNotFound
		}
		return nil, err
	}
	return a.mint(identity, pair)
}

func (a *authService) findByEmail(ctx context.Context, email string) (models.AuthIdentity, error) {
	var identity models.AuthIdentity
	err := a.s.db.DB().WithContext(ctx).
		Where("email = ?", normalizeEmail(email)).
		Take(&identity).Error
	return identity, err
}

func (a *authService) issue(ctx context.Context, identity models.AuthIdentity) (*backend.Session, error) {
	pair, err := a.s.sessions.Issue(ctx)
	if err != nil {
		return nil, err
	}
	return a.mint(identity, pair)
}

func (a *authService) mint(identity models.AuthIdentity, pair session.Pair) (*backend.Session, error) {
	now := a.s.now()
	token, err := pkgauth.MintAccessToken(a.s.jwt, now, pkgauth.AccessTokenPayload{
		IdentityID: identity.ID,
		Email:      identity.Email,
		JTI:        pair.AccessID,
	})
	if err != nil {
		return nil, err
	}
	return &backend.Session{
		AccessToken:  token,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    now.Add(a.s.jwt.AccessTTL()),
		Identity:     backend.Identity{ID: identity.ID, Email: identity.Email},
	}, nil
}

// authenticate validates an access token and checks it has not been signed out.
func (s *Service) authenticate(ctx context.Context, accessToken string) (*pkgauth.AccessTokenClaims, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, backend.NewError(http.StatusUnauthorized, "no_authorization", "This endpoint requires a Bearer token")
	}
	claims, err := pkgauth.ParseAccessToken(s.jwt, accessToken)
	if err != nil {
		return nil, errBadJWT
	}
	active, err := s.sessions.HasSession(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, errSessionNotFound
	}
	return claims, nil
}
