package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at configPath, applies defaults and validates the result.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw YAML content into a validated AppConfig.
func Parse(content []byte) (*AppConfig, error) {
	cfg := defaultAppConfig()
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
	}

	if err := applyRawAppConfig(&cfg, raw); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Auth: AuthConfig{
			CookieName:        DefaultCookieName,
			SessionTTL:        DefaultSessionTTL,
			LoginPath:         DefaultLoginPath,
			ProtectedPrefixes: append([]string(nil), defaultProtectedPrefixes...),
			TokenRegistryKey:  DefaultTokenRegistryKey,
		},
		Media: MediaConfig{
			Driver:      MediaDriverLocal,
			MaxUploadMB: defaultMaxUploadMB,
		},
	}
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) error {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw)
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}

	auth, err := applyRawAuthConfig(cfg.Auth, raw.Auth)
	if err != nil {
		return err
	}
	cfg.Auth = auth
	cfg.Media = applyRawMediaConfig(cfg.Media, raw.Media)

	if v := strings.TrimSpace(raw.Paths.Logs); v != "" {
		cfg.Paths.Logs = v
	}
	if v := strings.TrimSpace(raw.Paths.Uploads); v != "" {
		cfg.Paths.Uploads = v
	}
	if v := strings.TrimSpace(raw.Paths.Content); v != "" {
		cfg.Paths.Content = v
	}
	if v := strings.TrimSpace(raw.Paths.Site); v != "" {
		cfg.Paths.Site = v
	}
	if raw.AllowedOrigins != nil {
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	}
	if v := strings.TrimSpace(raw.Timezone); v != "" {
		cfg.Timezone = v
	}

	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	cfg.Paths = normalizeRuntimePaths(cfg.Paths)
	cfg.Env = normalizeEnv(cfg.Env)
	return nil
}

func applyRawDatabaseConfig(current DatabaseRuntimeConfig, raw rawAppConfig) DatabaseRuntimeConfig {
	cfg := current

	if v := strings.TrimSpace(raw.Database.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.DatabaseURL); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.Database.Host); v != "" {
		cfg.Host = v
	}
	if raw.Database.Port != 0 {
		cfg.Port = raw.Database.Port
	}
	if v := strings.TrimSpace(raw.Database.User); v != "" {
		cfg.User = v
	}
	if raw.Database.Password != "" {
		cfg.Password = raw.Database.Password
	}
	if v := strings.TrimSpace(raw.Database.Name); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.Database.Charset); v != "" {
		cfg.Charset = v
	}
	if raw.Database.ParseTime != nil {
		cfg.ParseTime = *raw.Database.ParseTime
	}
	if v := strings.TrimSpace(raw.Database.Loc); v != "" {
		cfg.Loc = v
	}
	if raw.Database.Params != nil {
		cfg.Params = raw.Database.Params
	}
	return normalizeDatabaseConfig(cfg)
}

func applyRawRedisConfig(current RedisRuntimeConfig, raw rawAppConfig) RedisRuntimeConfig {
	cfg := current

	if v := strings.TrimSpace(raw.Redis.URL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		cfg.URL = v
	}
	if v := strings.TrimSpace(raw.Redis.Host); v != "" {
		cfg.Host = v
	}
	if raw.Redis.Port != 0 {
		cfg.Port = raw.Redis.Port
	}
	if v := strings.TrimSpace(raw.Redis.Username); v != "" {
		cfg.Username = v
	}
	if raw.Redis.Password != "" {
		cfg.Password = raw.Redis.Password
	}
	if raw.Redis.DB != nil {
		cfg.DB = *raw.Redis.DB
	}
	if raw.Redis.TLS != nil {
		cfg.TLS = *raw.Redis.TLS
	}
	return normalizeRedisConfig(cfg)
}

func applyRawAuthConfig(current AuthConfig, raw rawAuthConfig) (AuthConfig, error) {
	cfg := current

	if v := strings.TrimSpace(raw.CookieName); v != "" {
		cfg.CookieName = v
	}
	if v := strings.TrimSpace(raw.SessionTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid auth.session_ttl %q: %w", v, err)
		}
		cfg.SessionTTL = ttl
	}
	if v := strings.TrimSpace(raw.LoginPath); v != "" {
		cfg.LoginPath = v
	}
	if raw.ProtectedPrefixes != nil {
		cfg.ProtectedPrefixes = normalizePrefixes(raw.ProtectedPrefixes)
	}
	if v := strings.TrimSpace(raw.TokenRegistryKey); v != "" {
		cfg.TokenRegistryKey = v
	}
	if raw.SecureCookie != nil {
		cfg.SecureCookie = *raw.SecureCookie
	}
	cfg.LoginPath = normalizePathPrefix(cfg.LoginPath)
	return cfg, nil
}

func applyRawMediaConfig(current MediaConfig, raw rawMediaConfig) MediaConfig {
	cfg := current

	if v := strings.ToLower(strings.TrimSpace(raw.Driver)); v != "" {
		cfg.Driver = v
	}
	if raw.MaxUploadMB != 0 {
		cfg.MaxUploadMB = raw.MaxUploadMB
	}
	if v := strings.TrimSpace(raw.PublicBaseURL); v != "" {
		cfg.PublicBaseURL = strings.TrimRight(v, "/")
	}
	cfg.S3 = normalizeS3Config(raw.S3)
	return cfg
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
	}
	if _, err := mysql.ParseDSN(c.DSN); err != nil {
		return fmt.Errorf("invalid database dsn: %w", err)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("invalid auth.session_ttl %s, expected > 0", c.Auth.SessionTTL)
	}
	if c.Media.MaxUploadMB < 1 {
		return fmt.Errorf("invalid media.max_upload_mb %d, expected >= 1", c.Media.MaxUploadMB)
	}
	switch c.Media.Driver {
	case MediaDriverLocal:
	case MediaDriverS3:
		s3 := c.Media.S3
		if s3.Bucket == "" || s3.Region == "" || s3.AccessKeyID == "" || s3.SecretAccessKey == "" {
			return fmt.Errorf("incomplete media.s3 config: bucket/region/access_key_id/secret_access_key are required")
		}
	default:
		return fmt.Errorf("invalid media.driver %q, expected %q or %q", c.Media.Driver, MediaDriverLocal, MediaDriverS3)
	}
	return nil
}

// IsDev reports whether the process runs outside production.
func (c *AppConfig) IsDev() bool { return c.Env != EnvProduction }

// IsProduction reports whether the process runs in production.
func (c *AppConfig) IsProduction() bool { return c.Env == EnvProduction }

func (c *AppConfig) LogDir() string {
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

func (c *AppConfig) UploadDir() string {
	return ResolveRuntimePath(c.Paths.Uploads, "uploads")
}

func (c *AppConfig) ContentDir() string {
	return ResolveRuntimePath(c.Paths.Content, "content")
}

func (c *AppConfig) SiteDir() string {
	return ResolveRuntimePath(c.Paths.Site, "site")
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *AppConfig) MaxUploadBytes() int64 {
	return int64(c.Media.MaxUploadMB) << 20
}
