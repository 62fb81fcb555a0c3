package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv                = "STOREFRONT_APP_ENV"
	EnvPort                  = "STOREFRONT_APP_PORT"
	EnvLogLevel              = "STOREFRONT_LOG_LEVEL"
	EnvDBDSN                 = "STOREFRONT_DB_DSN"
	EnvDBDriver              = "STOREFRONT_DB_DRIVER"
	EnvDBHost                = "STOREFRONT_DB_HOST"
	EnvDBUser                = "STOREFRONT_DB_USER"
	EnvDBName                = "STOREFRONT_DB_NAME"
	EnvRedisURL              = "STOREFRONT_REDIS_URL"
	EnvJWTSecret             = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer             = "STOREFRONT_JWT_ISSUER"
	EnvAutoMigrate           = "STOREFRONT_AUTO_MIGRATE"
	EnvConflictRetryBackoff  = "STOREFRONT_CART_CONFLICT_RETRY_BACKOFF"
	EnvProcessingOffsetCents = "STOREFRONT_CHECKOUT_PROCESSING_OFFSET_CENTS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
