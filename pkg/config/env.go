package config

const EnvPrefix = "MAISON"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	NewsletterProviderDatabase = "database"
	NewsletterProviderSendgrid = "sendgrid"
)

const (
	EnvAppEnv          = "MAISON_APP_ENV"
	EnvPort            = "MAISON_APP_PORT"
	EnvDBDSN           = "MAISON_DB_DSN"
	EnvDBHost          = "MAISON_DB_HOST"
	EnvDBUser          = "MAISON_DB_USER"
	EnvDBName          = "MAISON_DB_NAME"
	EnvRedisURL        = "MAISON_REDIS_URL"
	EnvUseSQLite       = "MAISON_USE_SQLITE"
	EnvCatalogTaxonomy = "MAISON_CATALOG_TAXONOMY"
	EnvNewsletter      = "MAISON_NEWSLETTER_PROVIDER"
	EnvSendgridAPIKey  = "MAISON_SENDGRID_API_KEY"
	EnvSessionIdleTTL  = "MAISON_SESSION_IDLE_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
