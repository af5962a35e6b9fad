package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	MercadoPago  MercadoPagoConfig
	Checkout     CheckoutConfig
	Cron         CronConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"INKWELL_APP_ENV" required:"true"`
	Port         string   `envconfig:"INKWELL_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"INKWELL_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"INKWELL_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"INKWELL_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"INKWELL_DB_DSN"`
	Driver string `envconfig:"INKWELL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"INKWELL_DB_HOST"`
	LegacyPort     int    `envconfig:"INKWELL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"INKWELL_DB_USER"`
	LegacyPassword string `envconfig:"INKWELL_DB_PASSWORD"`
	LegacyName     string `envconfig:"INKWELL_DB_NAME"`
	LegacySSLMode  string `envconfig:"INKWELL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INKWELL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INKWELL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INKWELL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INKWELL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"INKWELL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"INKWELL_REDIS_ADDR"`
	Password     string        `envconfig:"INKWELL_REDIS_PASSWORD"`
	DB           int           `envconfig:"INKWELL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INKWELL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INKWELL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INKWELL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INKWELL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INKWELL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"INKWELL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"INKWELL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"INKWELL_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"INKWELL_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"INKWELL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"INKWELL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"INKWELL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"INKWELL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"INKWELL_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"INKWELL_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"INKWELL_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"INKWELL_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	WebhookWindow   time.Duration `envconfig:"INKWELL_RATE_LIMIT_WEBHOOK_WINDOW" default:"1m"`
	WebhookIPLimit  int           `envconfig:"INKWELL_RATE_LIMIT_WEBHOOK_IP_LIMIT" default:"120"`
}

type MercadoPagoConfig struct {
	AccessToken string        `envconfig:"INKWELL_MP_ACCESS_TOKEN"`
	BaseURL     string        `envconfig:"INKWELL_MP_BASE_URL" default:"https://api.mercadopago.com"`
	Timeout     time.Duration `envconfig:"INKWELL_MP_TIMEOUT" default:"10s"`
}

type CheckoutConfig struct {
	SuccessURL      string `envconfig:"INKWELL_CHECKOUT_SUCCESS_URL"`
	FailureURL      string `envconfig:"INKWELL_CHECKOUT_FAILURE_URL"`
	PendingURL      string `envconfig:"INKWELL_CHECKOUT_PENDING_URL"`
	NotificationURL string `envconfig:"INKWELL_CHECKOUT_NOTIFICATION_URL"`
	Currency        string `envconfig:"INKWELL_CHECKOUT_CURRENCY" default:"BRL"`
}

type CronConfig struct {
	Interval         time.Duration `envconfig:"INKWELL_CRON_INTERVAL" default:"1h"`
	ReconcileWindow  time.Duration `envconfig:"INKWELL_CRON_RECONCILE_WINDOW" default:"72h"`
	FeeBackfillBatch int           `envconfig:"INKWELL_CRON_FEE_BACKFILL_BATCH" default:"50"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"INKWELL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"INKWELL_AUTO_MIGRATE" default:"false"`
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
