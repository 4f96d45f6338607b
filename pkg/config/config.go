package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App            AppConfig
	Service        ServiceConfig
	DB             DBConfig
	Redis          RedisConfig
	JWT            JWTConfig
	WriteRateLimit WriteRateLimitConfig
	FeatureFlags   FeatureFlagsConfig
	GCP            GCPConfig
	PubSub         PubSubConfig
	Cron           CronConfig
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
	Env          string `envconfig:"BLOOM_APP_ENV" required:"true"`
	Port         string `envconfig:"BLOOM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BLOOM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BLOOM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BLOOM_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BLOOM_DB_DSN"`
	Driver string `envconfig:"BLOOM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BLOOM_DB_HOST"`
	LegacyPort     int    `envconfig:"BLOOM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BLOOM_DB_USER"`
	LegacyPassword string `envconfig:"BLOOM_DB_PASSWORD"`
	LegacyName     string `envconfig:"BLOOM_DB_NAME"`
	LegacySSLMode  string `envconfig:"BLOOM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BLOOM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BLOOM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BLOOM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BLOOM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BLOOM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BLOOM_REDIS_ADDR"`
	Password     string        `envconfig:"BLOOM_REDIS_PASSWORD"`
	DB           int           `envconfig:"BLOOM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BLOOM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BLOOM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BLOOM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BLOOM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BLOOM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret              string `envconfig:"BLOOM_JWT_SECRET" required:"true"`
	Issuer              string `envconfig:"BLOOM_JWT_ISSUER" required:"true"`
	ExpirationMinutes   int    `envconfig:"BLOOM_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLDays int    `envconfig:"BLOOM_JWT_REFRESH_TTL_DAYS" default:"30"`
}

func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshTokenTTLDays) * 24 * time.Hour
}

type WriteRateLimitConfig struct {
	Window time.Duration `envconfig:"BLOOM_WRITE_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"BLOOM_WRITE_RATE_LIMIT_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BLOOM_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"BLOOM_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	EarnEventsTopic        string `envconfig:"BLOOM_PUBSUB_EARN_EVENTS_TOPIC" default:"bloom-earn-events"`
	EarnEventsSubscription string `envconfig:"BLOOM_PUBSUB_EARN_EVENTS_SUBSCRIPTION"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"BLOOM_CRON_INTERVAL" default:"24h"`
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
