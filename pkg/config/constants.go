package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "HAMLET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "HAMLET_APP_ENV"
	EnvPort   = "HAMLET_APP_PORT"

	EnvDBDSN  = "HAMLET_DB_DSN"
	EnvDBHost = "HAMLET_DB_HOST"
	EnvDBUser = "HAMLET_DB_USER"
	EnvDBName = "HAMLET_DB_NAME"

	EnvRedisURL = "HAMLET_REDIS_URL"

	EnvJWTSecret = "HAMLET_JWT_SECRET"
	EnvJWTIssuer = "HAMLET_JWT_ISSUER"

	EnvAdminPIN = "HAMLET_ADMIN_PIN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
