package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Backend       BackendConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	OneTimeCode   OneTimeCodeConfig
	Session       SessionConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	if cfg.Backend.IsEmbedded() {
		if cfg.JWT.Secret == "" {
			return nil, fmt.Errorf("%s is required for the embedded backend", EnvJWTSecret)
		}
		if !cfg.FeatureFlags.UseSQLite {
			if err := cfg.DB.ensureDSN(); err != nil {
				return nil, err
			}
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PRINTSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"PRINTSHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PRINTSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRINTSHOP_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"PRINTSHOP_LOG_FORMAT" default:"json"`

	CORSOrigins []string `envconfig:"PRINTSHOP_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig selects and configures the managed data/auth service.
type BackendConfig struct {
	Mode    string `envconfig:"PRINTSHOP_BACKEND_MODE" default:"hosted"`
	URL     string `envconfig:"PRINTSHOP_BACKEND_URL"`
	AnonKey string `envconfig:"PRINTSHOP_BACKEND_ANON_KEY"`
}

func (b BackendConfig) IsEmbedded() bool {
	return strings.EqualFold(strings.TrimSpace(b.Mode), BackendModeEmbedded)
}

func (b BackendConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(b.Mode)) {
	case BackendModeHosted:
		if b.URL == "" || b.AnonKey == "" {
			return fmt.Errorf("%s and %s are required for the hosted backend", EnvBackendURL, EnvBackendAnonKey)
		}
		if _, err := url.ParseRequestURI(b.URL); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvBackendURL, err)
		}
		return nil
	case BackendModeEmbedded:
		return nil
	default:
		return fmt.Errorf("unsupported backend mode %q", b.Mode)
	}
}

type DBConfig struct {
	DSN    string `envconfig:"PRINTSHOP_DB_DSN"`
	Driver string `envconfig:"PRINTSHOP_DB_DRIVER" default:"postgres"`

	SQLitePath string `envconfig:"PRINTSHOP_SQLITE_PATH" default:"printshop.db"`

	LegacyHost     string `envconfig:"PRINTSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"PRINTSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRINTSHOP_DB_USER"`
	LegacyPassword string `envconfig:"PRINTSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRINTSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRINTSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRINTSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRINTSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRINTSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRINTSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRINTSHOP_REDIS_URL"`
	Address      string        `envconfig:"PRINTSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"PRINTSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRINTSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRINTSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRINTSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRINTSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRINTSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRINTSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig signs the access tokens issued by the embedded backend.
type JWTConfig struct {
	Secret                 string `envconfig:"PRINTSHOP_JWT_SECRET"`
	Issuer                 string `envconfig:"PRINTSHOP_JWT_ISSUER" default:"printshop-embedded"`
	ExpirationMinutes      int    `envconfig:"PRINTSHOP_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"PRINTSHOP_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTTL returns the access token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PRINTSHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PRINTSHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PRINTSHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PRINTSHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PRINTSHOP_ARGON_KEY_LEN" default:"32"`
}

type OneTimeCodeConfig struct {
	TTL    time.Duration `envconfig:"PRINTSHOP_OTP_TTL" default:"10m"`
	Digits int           `envconfig:"PRINTSHOP_OTP_DIGITS" default:"6"`
}

// SessionConfig drives the browser session cookie and workspace lifetime.
type SessionConfig struct {
	CookieName   string        `envconfig:"PRINTSHOP_SESSION_COOKIE" default:"printshop_sid"`
	CookieSecure bool          `envconfig:"PRINTSHOP_SESSION_COOKIE_SECURE" default:"true"`
	TTL          time.Duration `envconfig:"PRINTSHOP_SESSION_TTL" default:"720h"`
	IdleTimeout  time.Duration `envconfig:"PRINTSHOP_SESSION_IDLE_TIMEOUT" default:"30m"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PRINTSHOP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PRINTSHOP_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PRINTSHOP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PRINTSHOP_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PRINTSHOP_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PRINTSHOP_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PRINTSHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PRINTSHOP_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
