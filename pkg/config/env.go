package config

// EnvPrefix is handed to envconfig; every field also carries its absolute name.
const EnvPrefix = "STOCKROOM"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv                 = "STOCKROOM_APP_ENV"
	EnvPort                   = "STOCKROOM_APP_PORT"
	EnvLogLevel               = "STOCKROOM_LOG_LEVEL"
	EnvDBDSN                  = "STOCKROOM_DB_DSN"
	EnvDBHost                 = "STOCKROOM_DB_HOST"
	EnvDBPort                 = "STOCKROOM_DB_PORT"
	EnvDBUser                 = "STOCKROOM_DB_USER"
	EnvDBPassword             = "STOCKROOM_DB_PASSWORD"
	EnvDBName                 = "STOCKROOM_DB_NAME"
	EnvDBSSLMode              = "STOCKROOM_DB_SSLMODE"
	EnvUseSQLite              = "STOCKROOM_USE_SQLITE"
	EnvRedisURL               = "STOCKROOM_REDIS_URL"
	EnvJWTSecret              = "STOCKROOM_JWT_SECRET"
	EnvJWTIssuer              = "STOCKROOM_JWT_ISSUER"
	EnvJWTExpMins             = "STOCKROOM_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "STOCKROOM_REFRESH_TOKEN_TTL_MINUTES"
	EnvAllowNegativeStock     = "STOCKROOM_ALLOW_NEGATIVE_STOCK"
	EnvPubSubInventoryTopic   = "STOCKROOM_PUBSUB_INVENTORY_TOPIC"
	EnvOutboxRetentionDays    = "STOCKROOM_OUTBOX_RETENTION_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
