// Package embedded is an in-process implementation of the backend contract
// over GORM and Redis. It lets the service run locally and in integration
// tests without the hosted backend, reproducing its auth flows and the
// row-level rules the hosted store enforces.
package embedded

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/printshop-backend/pkg/auth/session"
	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	redisclient "github.com/angelmondragon/printshop-backend/pkg/redis"
)

// CodeSender delivers one-time codes to their owner.
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

// LogCodeSender writes codes to the structured log; meant for local development.
type LogCodeSender struct {
	Logger *logger.Logger
}

func (s LogCodeSender) SendCode(ctx context.Context, email, code string) error {
	if s.Logger == nil {
		return nil
	}
	ctx = s.Logger.WithFields(ctx, map[string]any{"email": email, "code": code})
	s.Logger.Info(ctx, "embedded.one_time_code.issued")
	return nil
}

// Deps bundles what the embedded backend needs.
type Deps struct {
	DB          *db.Client
	Redis       *redisclient.Client
	Sessions    *session.Manager
	JWT         config.JWTConfig
	Password    config.PasswordConfig
	OneTimeCode config.OneTimeCodeConfig
	Sender      CodeSender
	Logger      *logger.Logger
	Now         func() time.Time
}

// Service implements backend.Service.
type Service struct {
	db       *db.Client
	redis    *redisclient.Client
	sessions *session.Manager
	jwt      config.JWTConfig
	password config.PasswordConfig
	otp      config.OneTimeCodeConfig
	sender   CodeSender
	logg     *logger.Logger
	now      func() time.Time

	auth   *authService
	tables *tableService
}

var _ backend.Service = (*Service)(nil)

func New(deps Deps) (*Service, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("db client is required")
	}
	if deps.Redis == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if deps.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Sender == nil {
		deps.Sender = LogCodeSender{Logger: deps.Logger}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.OneTimeCode.TTL <= 0 {
		deps.OneTimeCode.TTL = 10 * time.Minute
	}
	if deps.OneTimeCode.Digits <= 0 {
		deps.OneTimeCode.Digits = 6
	}

	s := &Service{
		db:       deps.DB,
		redis:    deps.Redis,
		sessions: deps.Sessions,
		jwt:      deps.JWT,
		password: deps.Password,
		otp:      deps.OneTimeCode,
		sender:   deps.Sender,
		logg:     deps.Logger,
		now:      deps.Now,
	}
	s.auth = &authService{s: s}
	s.tables = &tableService{s: s}
	return s, nil
}

func (s *Service) Auth() backend.Auth     { return s.auth }
func (s *Service) Tables() backend.Tables { return s.tables }

func (s *Service) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	if err := s.redis.Ping(ctx); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
