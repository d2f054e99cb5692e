package config

// EnvPrefix is the envconfig prefix shared by every section.
const EnvPrefix = "PRICING"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "PRICING_APP_ENV"
	EnvPort     = "PRICING_APP_PORT"
	EnvDBDSN    = "PRICING_DB_DSN"
	EnvDBHost   = "PRICING_DB_HOST"
	EnvDBUser   = "PRICING_DB_USER"
	EnvDBName   = "PRICING_DB_NAME"
	EnvRedisURL = "PRICING_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
