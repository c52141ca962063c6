package config

const (
	EnvPrefix = "RPGMARKET"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv   = "RPGMARKET_APP_ENV"
	EnvPort     = "RPGMARKET_APP_PORT"
	EnvLogLevel = "RPGMARKET_LOG_LEVEL"

	EnvDBDSN    = "RPGMARKET_DB_DSN"
	EnvDBDriver = "RPGMARKET_DB_DRIVER"
	EnvDBHost   = "RPGMARKET_DB_HOST"
	EnvDBUser   = "RPGMARKET_DB_USER"
	EnvDBName   = "RPGMARKET_DB_NAME"

	EnvRedisURL = "RPGMARKET_REDIS_URL"

	EnvJWTSecret              = "RPGMARKET_JWT_SECRET"
	EnvJWTIssuer              = "RPGMARKET_JWT_ISSUER"
	EnvJWTExpMins             = "RPGMARKET_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "RPGMARKET_REFRESH_TOKEN_TTL_MINUTES"

	EnvAuctionCloserInterval = "RPGMARKET_AUCTION_CLOSER_INTERVAL"
	EnvAuctionMaxAttempts    = "RPGMARKET_AUCTION_MAX_ATTEMPTS"
	EnvUseSQLite             = "RPGMARKET_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
