// Package auth implements the sign-up, sign-in and password reset screens.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

const (
	signUpSucceeded = "Account created"
	passwordsDiffer = "passwords do not match"
)

// SessionClient is the per-browser auth surface the screens drive.
type SessionClient interface {
	SignUp(ctx context.Context, creds backend.Credentials) (*backend.Identity, error)
	Authenticate(ctx context.Context, creds backend.Credentials) (*backend.Session, error)
	Adopt(ctx context.Context, sess *backend.Session) error
	Revoke(ctx context.Context, sess *backend.Session) error
	SignInWithPassword(ctx context.Context, creds backend.Credentials) error
	SignOut(ctx context.Context) error
	RequestOneTimeCode(ctx context.Context, email string) error
	VerifyOneTimeCode(ctx context.Context, email, code string) (*backend.Session, error)
	SetPassword(ctx context.Context, sess *backend.Session, password string) error
}

type profileCreator interface {
	Create(ctx context.Context, profile *models.CustomerProfile) error
}

type Service interface {
	SignUp(ctx context.Context, client SessionClient, req SignUpRequest) (*SignUpResponse, error)
	SignIn(ctx context.Context, client SessionClient, req SignInRequest) error
	SignOut(ctx context.Context, client SessionClient) error
	RequestPasswordReset(ctx context.Context, client SessionClient, req PasswordResetRequest) error
	ConfirmPasswordReset(ctx context.Context, client SessionClient, req PasswordResetConfirmation) error
}

type service struct {
	profiles profileCreator
	logg     *logger.Logger
}

func NewService(profiles profileCreator, logg *logger.Logger) (Service, error) {
	if profiles == nil {
		return nil, fmt.Errorf("profile creator is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{profiles: profiles, logg: logg}, nil
}

// SignUp creates the identity, signs it in, stores its customer profile and
// only then makes the session current, so the browser never sees an identity
// without a profile.
func (s *service) SignUp(ctx context.Context, client SessionClient, req SignUpRequest) (*SignUpResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, pkgerrors.Validation(passwordsDiffer)
	}
	name := strings.TrimSpace(req.FullName)
	email := strings.TrimSpace(req.Email)
	if name == "" || email == "" {
		return nil, pkgerrors.Validation("name and email are required")
	}

	creds := backend.Credentials{Email: email, Password: req.Password}
	identity, err := client.SignUp(ctx, creds)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, pkgerrors.Invariant("sign-up returned no identity")
	}

	sess, err := client.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}

	profile := &models.CustomerProfile{
		IdentityID: sess.Identity.ID,
		Name:       name,
		Email:      email,
		Role:       enums.RoleCustomer,
	}
	if digits := PhoneDigits(req.Phone); digits != "" {
		profile.Phone = &digits
	}

	ctx = s.logg.WithIdentityID(ctx, sess.Identity.ID.String())
	if err := s.profiles.Create(backend.WithAccessToken(ctx, sess.AccessToken), profile); err != nil {
		if revokeErr := client.Revoke(ctx, sess); revokeErr != nil {
			s.logg.WarnErr(ctx, "auth.signup_revoke_failed", revokeErr)
		}
		return nil, err
	}

	if err := client.Adopt(ctx, sess); err != nil {
		return nil, err
	}
	s.logg.Info(ctx, "auth.signup_completed")
	return &SignUpResponse{Profile: profile, Message: signUpSucceeded}, nil
}

func (s *service) SignIn(ctx context.Context, client SessionClient, req SignInRequest) error {
	return client.SignInWithPassword(ctx, backend.Credentials{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
}

func (s *service) SignOut(ctx context.Context, client SessionClient) error {
	return client.SignOut(ctx)
}

// RequestPasswordReset sends a one-time code; it never creates an identity.
func (s *service) RequestPasswordReset(ctx context.Context, client SessionClient, req PasswordResetRequest) error {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return pkgerrors.Validation("email is required")
	}
	return client.RequestOneTimeCode(ctx, email)
}

// ConfirmPasswordReset verifies the code, sets the new password with the
// verified session and signs that session out again.
func (s *service) ConfirmPasswordReset(ctx context.Context, client SessionClient, req PasswordResetConfirmation) error {
	if req.Password != req.ConfirmPassword {
		return pkgerrors.Validation(passwordsDiffer)
	}
	email := strings.TrimSpace(req.Email)
	code := strings.TrimSpace(req.Code)
	if email == "" || code == "" {
		return pkgerrors.Validation("email and code are required")
	}

	sess, err := client.VerifyOneTimeCode(ctx, email, code)
	if err != nil {
		return err
	}
	if sess == nil {
		return pkgerrors.Invariant("could not verify the code; try again")
	}

	setErr := client.SetPassword(ctx, sess, req.Password)
	if err := client.Revoke(ctx, sess); err != nil {
		s.logg.WarnErr(ctx, "auth.reset_signout_failed", err)
	}
	return setErr
}
