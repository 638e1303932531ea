package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable the service reads.
	EnvPrefix = "PAWPAL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PAWPAL_DB_DSN"
	EnvDBHost = "PAWPAL_DB_HOST"
	EnvDBUser = "PAWPAL_DB_USER"
	EnvDBName = "PAWPAL_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
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
	Env          string `envconfig:"PAWPAL_APP_ENV" required:"true"`
	Port         string `envconfig:"PAWPAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PAWPAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PAWPAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PAWPAL_DB_DSN"`
	Driver string `envconfig:"PAWPAL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PAWPAL_DB_HOST"`
	LegacyPort     int    `envconfig:"PAWPAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PAWPAL_DB_USER"`
	LegacyPassword string `envconfig:"PAWPAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"PAWPAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"PAWPAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PAWPAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PAWPAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PAWPAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PAWPAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PAWPAL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PAWPAL_REDIS_ADDR"`
	Password     string        `envconfig:"PAWPAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"PAWPAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PAWPAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PAWPAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PAWPAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PAWPAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PAWPAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"PAWPAL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PAWPAL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PAWPAL_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"PAWPAL_CRON_INTERVAL" default:"1m"`
	LockTTL  time.Duration `envconfig:"PAWPAL_CRON_LOCK_TTL" default:"5m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PAWPAL_FEATURE_AUTO_MIGRATE" default:"false"`
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
