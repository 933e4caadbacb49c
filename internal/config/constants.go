package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 3000
	defaultEnv        = "development"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "assoc_site"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultRedisHost  = "localhost"
	defaultRedisPort  = 6379
	defaultRedisDB    = 0

	DefaultCookieName       = "admin-auth-token"
	DefaultLoginPath        = "/login"
	DefaultTokenRegistryKey = "admin-tokens"
	DefaultSessionTTL       = 7 * 24 * time.Hour

	MediaDriverLocal = "local"
	MediaDriverS3    = "s3"

	defaultMaxUploadMB = 20

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

var defaultProtectedPrefixes = []string{"/admin"}
