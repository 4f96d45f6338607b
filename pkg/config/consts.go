package config

// EnvPrefix namespaces every environment variable this service reads.
const EnvPrefix = "BLOOM"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "BLOOM_DB_DSN"
	EnvDBHost = "BLOOM_DB_HOST"
	EnvDBUser = "BLOOM_DB_USER"
	EnvDBName = "BLOOM_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
