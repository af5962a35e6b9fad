package config

// EnvPrefix namespaces every environment variable consumed by envconfig.
const EnvPrefix = "INKWELL"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Raw env var names, used by tests and the legacy-DSN assembly error message.
const (
	EnvAppEnv    = "INKWELL_APP_ENV"
	EnvPort      = "INKWELL_APP_PORT"
	EnvDBDSN     = "INKWELL_DB_DSN"
	EnvDBHost    = "INKWELL_DB_HOST"
	EnvDBUser    = "INKWELL_DB_USER"
	EnvDBName    = "INKWELL_DB_NAME"
	EnvRedisURL  = "INKWELL_REDIS_URL"
	EnvJWTSecret = "INKWELL_JWT_SECRET"
	EnvJWTIssuer = "INKWELL_JWT_ISSUER"
	EnvJWTExpMin = "INKWELL_JWT_EXPIRATION_MINUTES"
	EnvMPToken   = "INKWELL_MP_ACCESS_TOKEN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
