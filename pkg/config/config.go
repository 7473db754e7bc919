package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the runtime configuration of the delivery service. Every field is
// read from the environment (optionally seeded by a .env file).
type Config struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	Database DatabaseConfig `mapstructure:",squash"`
	Storage  StorageConfig  `mapstructure:",squash"`
	CDN      CDNConfig      `mapstructure:",squash"`
	Cache    CacheConfig    `mapstructure:",squash"`
	Auth     AuthConfig     `mapstructure:",squash"`
	CORS     CORSConfig     `mapstructure:",squash"`
	Log      LogConfig      `mapstructure:",squash"`

	TokenExpirySeconds int    `mapstructure:"token_expiry_seconds"`
	TokenSweepSchedule string `mapstructure:"token_sweep_schedule"`
	MaxUploadBytes     int64  `mapstructure:"max_upload_bytes"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"db_driver"`
	URL    string `mapstructure:"database_url"`
}

type StorageConfig struct {
	Backend     string `mapstructure:"storage_backend"`
	Path        string `mapstructure:"storage_path"`
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3UseSSL    bool   `mapstructure:"s3_use_ssl"`
}

type CDNConfig struct {
	Endpoint     string `mapstructure:"cdn_endpoint"`
	PurgeEnabled bool   `mapstructure:"cdn_purge_enabled"`
	APIKey       string `mapstructure:"cloudflare_api_key"`
	ZoneID       string `mapstructure:"cloudflare_zone_id"`
	APIBase      string `mapstructure:"cloudflare_api_base"`
}

// CacheConfig holds the max-age values used for live public assets.
type CacheConfig struct {
	SharedMaxAge int `mapstructure:"cache_shared_max_age"`
	ClientMaxAge int `mapstructure:"cache_client_max_age"`
}

type AuthConfig struct {
	Enabled   bool   `mapstructure:"auth_enabled"`
	JWTSecret string `mapstructure:"auth_jwt_secret"`
}

// CORSConfig lists the browser origins allowed to call the API, comma
// separated. "*" allows any origin.
type CORSConfig struct {
	AllowedOrigins string `mapstructure:"cors_allowed_origins"`
}

// Origins splits AllowedOrigins and drops empty entries.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type LogConfig struct {
	Level      string `mapstructure:"log_level"`
	FilePath   string `mapstructure:"log_file_path"`
	MaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	MaxBackups int    `mapstructure:"log_max_backups"`
	Compress   bool   `mapstructure:"log_compress"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	BackendFS     = "fs"
	BackendS3     = "s3"
	BackendMemory = "memory"

	// maxTokenExpirySeconds keeps TOKEN_EXPIRY_SECONDS inside time.Duration.
	maxTokenExpirySeconds = 10 * 365 * 24 * 60 * 60
)

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TokenTTL is the default lifetime of an access token.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenExpirySeconds) * time.Second
}

// Load reads the configuration from the environment, applies defaults and
// validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8000)
	v.SetDefault("shutdown_timeout", "15s")

	v.SetDefault("db_driver", DriverSQLite)
	v.SetDefault("database_url", "file:content_delivery.db")

	v.SetDefault("storage_backend", BackendFS)
	v.SetDefault("storage_path", "./storage")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_access_key", "")
	v.SetDefault("s3_secret_key", "")
	v.SetDefault("s3_bucket", "content-delivery")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_use_ssl", false)

	v.SetDefault("cdn_endpoint", "http://localhost:8000")
	v.SetDefault("cdn_purge_enabled", false)
	v.SetDefault("cloudflare_api_key", "")
	v.SetDefault("cloudflare_zone_id", "")
	v.SetDefault("cloudflare_api_base", "https://api.cloudflare.com/client/v4")

	v.SetDefault("cache_shared_max_age", 3600)
	v.SetDefault("cache_client_max_age", 60)

	v.SetDefault("auth_enabled", false)
	v.SetDefault("auth_jwt_secret", "")

	v.SetDefault("cors_allowed_origins", "*")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_file_path", "")
	v.SetDefault("log_max_size_mb", 100)
	v.SetDefault("log_max_backups", 10)
	v.SetDefault("log_compress", true)

	v.SetDefault("token_expiry_seconds", 3600)
	v.SetDefault("token_sweep_schedule", "@hourly")
	v.SetDefault("max_upload_bytes", int64(100<<20))
}

func normalize(cfg *Config) {
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	cfg.CDN.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.CDN.Endpoint), "/")
	cfg.CDN.APIBase = strings.TrimRight(strings.TrimSpace(cfg.CDN.APIBase), "/")
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
}

// Validate checks the invariants the rest of the service relies on.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, newFieldError("PORT", "must be between 1 and 65535"))
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, newFieldError("DB_DRIVER", "must be postgres or sqlite"))
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, newFieldError("DATABASE_URL", "is required"))
	}
	switch c.Storage.Backend {
	case BackendFS:
		if strings.TrimSpace(c.Storage.Path) == "" {
			errs = append(errs, newFieldError("STORAGE_PATH", "is required for the fs backend"))
		}
	case BackendS3:
		if c.Storage.S3Endpoint == "" || c.Storage.S3Bucket == "" {
			errs = append(errs, newFieldError("S3_ENDPOINT", "endpoint and bucket are required for the s3 backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, newFieldError("STORAGE_BACKEND", "must be fs, s3 or memory"))
	}
	if c.Cache.ClientMaxAge < 0 {
		errs = append(errs, newFieldError("CACHE_CLIENT_MAX_AGE", "must not be negative"))
	}
	if c.Cache.SharedMaxAge < c.Cache.ClientMaxAge {
		errs = append(errs, newFieldError("CACHE_SHARED_MAX_AGE", "must be greater than or equal to CACHE_CLIENT_MAX_AGE"))
	}
	if c.TokenExpirySeconds <= 0 || c.TokenExpirySeconds > maxTokenExpirySeconds {
		errs = append(errs, newFieldError("TOKEN_EXPIRY_SECONDS", fmt.Sprintf("must be between 1 and %d", maxTokenExpirySeconds)))
	}
	origins := c.CORS.Origins()
	if len(origins) == 0 {
		errs = append(errs, newFieldError("CORS_ALLOWED_ORIGINS", "must list at least one origin or *"))
	}
	for _, o := range origins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			errs = append(errs, newFieldError("CORS_ALLOWED_ORIGINS", fmt.Sprintf("origin %q must start with http:// or https://", o)))
		}
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, newFieldError("MAX_UPLOAD_BYTES", "must be positive"))
	}
	return errors.Join(errs...)
}
