package config

const (
	EnvPrefix = "PRINTSHOP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	BackendModeHosted   = "hosted"
	BackendModeEmbedded = "embedded"

	EnvAppEnv         = "PRINTSHOP_APP_ENV"
	EnvPort           = "PRINTSHOP_APP_PORT"
	EnvBackendMode    = "PRINTSHOP_BACKEND_MODE"
	EnvBackendURL     = "PRINTSHOP_BACKEND_URL"
	EnvBackendAnonKey = "PRINTSHOP_BACKEND_ANON_KEY"
	EnvRedisURL       = "PRINTSHOP_REDIS_URL"
	EnvJWTSecret      = "PRINTSHOP_JWT_SECRET"
	EnvUseSQLite      = "PRINTSHOP_USE_SQLITE"

	EnvDBDSN  = "PRINTSHOP_DB_DSN"
	EnvDBHost = "PRINTSHOP_DB_HOST"
	EnvDBUser = "PRINTSHOP_DB_USER"
	EnvDBName = "PRINTSHOP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
