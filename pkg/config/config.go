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
	Cart         CartConfig
	Catalog      CatalogConfig
	Newsletter   NewsletterConfig
	Session      SessionConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Newsletter.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MAISON_APP_ENV" required:"true"`
	Port         string `envconfig:"MAISON_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MAISON_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MAISON_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"MAISON_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN        string `envconfig:"MAISON_DB_DSN"`
	Driver     string `envconfig:"MAISON_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"MAISON_DB_SQLITE_PATH" default:"maison.db"`

	LegacyHost     string `envconfig:"MAISON_DB_HOST"`
	LegacyPort     int    `envconfig:"MAISON_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MAISON_DB_USER"`
	LegacyPassword string `envconfig:"MAISON_DB_PASSWORD"`
	LegacyName     string `envconfig:"MAISON_DB_NAME"`
	LegacySSLMode  string `envconfig:"MAISON_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MAISON_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MAISON_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MAISON_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MAISON_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MAISON_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MAISON_REDIS_ADDR"`
	Password     string        `envconfig:"MAISON_REDIS_PASSWORD"`
	DB           int           `envconfig:"MAISON_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MAISON_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MAISON_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MAISON_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MAISON_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MAISON_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CartConfig controls cart snapshot persistence.
type CartConfig struct {
	SnapshotTTL  time.Duration `envconfig:"MAISON_CART_SNAPSHOT_TTL" default:"720h"`
	WriteTimeout time.Duration `envconfig:"MAISON_CART_WRITE_TIMEOUT" default:"2s"`
}

// CatalogConfig controls the product/collection feed and the category allow-list.
type CatalogConfig struct {
	Taxonomy    []string      `envconfig:"MAISON_CATALOG_TAXONOMY" default:"Dresses,Tops,Bottoms,Outerwear,Knits,Accessories"`
	CacheTTL    time.Duration `envconfig:"MAISON_CATALOG_CACHE_TTL" default:"1m"`
	LoadTimeout time.Duration `envconfig:"MAISON_CATALOG_LOAD_TIMEOUT" default:"3s"`
	RetryDelay  time.Duration `envconfig:"MAISON_CATALOG_RETRY_DELAY" default:"5s"`
}

type NewsletterConfig struct {
	Provider       string        `envconfig:"MAISON_NEWSLETTER_PROVIDER" default:"database"`
	SendgridAPIKey string        `envconfig:"MAISON_SENDGRID_API_KEY"`
	SendgridListID string        `envconfig:"MAISON_SENDGRID_LIST_ID"`
	SendgridHost   string        `envconfig:"MAISON_SENDGRID_HOST" default:"https://api.sendgrid.com"`
	Timeout        time.Duration `envconfig:"MAISON_NEWSLETTER_TIMEOUT" default:"10s"`

	RateLimitWindow     time.Duration `envconfig:"MAISON_NEWSLETTER_RATE_LIMIT_WINDOW" default:"10m"`
	RateLimitIPLimit    int           `envconfig:"MAISON_NEWSLETTER_RATE_LIMIT_IP_LIMIT" default:"20"`
	RateLimitEmailLimit int           `envconfig:"MAISON_NEWSLETTER_RATE_LIMIT_EMAIL_LIMIT" default:"5"`
}

// UsesSendgrid reports whether signups go to the SendGrid contacts API.
func (n NewsletterConfig) UsesSendgrid() bool {
	return strings.EqualFold(strings.TrimSpace(n.Provider), NewsletterProviderSendgrid)
}

func (n NewsletterConfig) validate() error {
	provider := strings.ToLower(strings.TrimSpace(n.Provider))
	switch provider {
	case NewsletterProviderDatabase:
		return nil
	case NewsletterProviderSendgrid:
		if strings.TrimSpace(n.SendgridAPIKey) == "" {
			return fmt.Errorf("%s is required when the newsletter provider is sendgrid", EnvSendgridAPIKey)
		}
		return nil
	default:
		return fmt.Errorf("unknown newsletter provider %q", n.Provider)
	}
}

type SessionConfig struct {
	IdleTTL       time.Duration `envconfig:"MAISON_SESSION_IDLE_TTL" default:"2h"`
	SweepInterval time.Duration `envconfig:"MAISON_SESSION_SWEEP_INTERVAL" default:"5m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MAISON_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MAISON_AUTO_MIGRATE" default:"false"`
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
