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
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	CORS          CORSConfig
	Ledger        LedgerConfig
	Applications  ApplicationsConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Ledger.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LOCKERHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"LOCKERHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOCKERHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOCKERHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"LOCKERHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LOCKERHUB_DB_DSN"`
	Driver string `envconfig:"LOCKERHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOCKERHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"LOCKERHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOCKERHUB_DB_USER"`
	LegacyPassword string `envconfig:"LOCKERHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOCKERHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOCKERHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOCKERHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOCKERHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOCKERHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOCKERHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOCKERHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOCKERHUB_REDIS_ADDR"`
	Password     string        `envconfig:"LOCKERHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOCKERHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOCKERHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOCKERHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOCKERHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOCKERHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOCKERHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LOCKERHUB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LOCKERHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LOCKERHUB_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"LOCKERHUB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LOCKERHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LOCKERHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LOCKERHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LOCKERHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LOCKERHUB_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"LOCKERHUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginPhoneLimit    int           `envconfig:"LOCKERHUB_AUTH_RATE_LIMIT_LOGIN_PHONE_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"LOCKERHUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"LOCKERHUB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterPhoneLimit int           `envconfig:"LOCKERHUB_AUTH_RATE_LIMIT_REGISTER_PHONE_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"LOCKERHUB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LOCKERHUB_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"LOCKERHUB_CORS_ALLOWED_ORIGINS" default:"*"`
}

// LedgerConfig tunes locker record retention and exports.
type LedgerConfig struct {
	RetentionDays   int `envconfig:"LOCKERHUB_LEDGER_RETENTION_DAYS" default:"365"`
	DeleteBatchSize int `envconfig:"LOCKERHUB_LEDGER_DELETE_BATCH_SIZE" default:"500"`
	ExportMaxRows   int `envconfig:"LOCKERHUB_LEDGER_EXPORT_MAX_ROWS" default:"50000"`
}

func (l LedgerConfig) validate() error {
	if l.RetentionDays <= 0 {
		return fmt.Errorf("%s must be positive", EnvLedgerRetentionDays)
	}
	if l.DeleteBatchSize <= 0 {
		return fmt.Errorf("%s must be positive", EnvLedgerDeleteBatchSize)
	}
	return nil
}

// Retention returns the record retention window.
func (l LedgerConfig) Retention() time.Duration {
	return time.Duration(l.RetentionDays) * 24 * time.Hour
}

type ApplicationsConfig struct {
	DefaultRejectionReason string `envconfig:"LOCKERHUB_APPLICATIONS_DEFAULT_REJECTION_REASON" default:"Application rejected by administrator"`
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"LOCKERHUB_CRON_INTERVAL" default:"24h"`
	LockTTL               time.Duration `envconfig:"LOCKERHUB_CRON_LOCK_TTL" default:"30m"`
	StaleApplicationAfter time.Duration `envconfig:"LOCKERHUB_CRON_STALE_APPLICATION_AFTER" default:"72h"`
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
