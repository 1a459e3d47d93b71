package config

const (
	EnvPrefix = "LOCKERHUB"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "LOCKERHUB_APP_ENV"
	EnvPort     = "LOCKERHUB_APP_PORT"
	EnvLogLevel = "LOCKERHUB_LOG_LEVEL"

	EnvDBDSN  = "LOCKERHUB_DB_DSN"
	EnvDBHost = "LOCKERHUB_DB_HOST"
	EnvDBPort = "LOCKERHUB_DB_PORT"
	EnvDBUser = "LOCKERHUB_DB_USER"
	EnvDBName = "LOCKERHUB_DB_NAME"

	EnvRedisURL = "LOCKERHUB_REDIS_URL"

	EnvJWTSecret              = "LOCKERHUB_JWT_SECRET"
	EnvJWTIssuer              = "LOCKERHUB_JWT_ISSUER"
	EnvJWTExpMins             = "LOCKERHUB_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "LOCKERHUB_REFRESH_TOKEN_TTL_MINUTES"

	EnvLedgerRetentionDays   = "LOCKERHUB_LEDGER_RETENTION_DAYS"
	EnvLedgerDeleteBatchSize = "LOCKERHUB_LEDGER_DELETE_BATCH_SIZE"

	EnvCronStaleApplicationAfter = "LOCKERHUB_CRON_STALE_APPLICATION_AFTER"
)

var legacyDBEnvVars = []string{
	EnvDBHost,
	EnvDBUser,
	EnvDBName,
}
