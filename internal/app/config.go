package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/manage-pm/manage-admin/internal/platform/redisx"
)

// Token store backends.
const (
	TokenStoreFile  = "file"
	TokenStoreRedis = "redis"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("app: invalid configuration")

// Config holds runtime configuration for the client binaries.
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`

	APIURL     string        `envconfig:"MANAGE_API_URL" default:"http://127.0.0.1:5000"`
	APITimeout time.Duration `envconfig:"MANAGE_API_TIMEOUT" default:"10s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	TokenStore string        `envconfig:"TOKEN_STORE" default:"file"`
	TokenFile  string        `envconfig:"TOKEN_FILE"`
	TokenTTL   time.Duration `envconfig:"TOKEN_TTL" default:"0s"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	ConsoleAddr           string        `envconfig:"CONSOLE_ADDR" default:"127.0.0.1:8080"`
	ConsoleReadTimeout    time.Duration `envconfig:"CONSOLE_READ_TIMEOUT" default:"15s"`
	ConsoleWriteTimeout   time.Duration `envconfig:"CONSOLE_WRITE_TIMEOUT" default:"15s"`
	ConsoleRequestTimeout time.Duration `envconfig:"CONSOLE_REQUEST_TIMEOUT" default:"30s"`
	ConsoleRateLimit      int           `envconfig:"CONSOLE_RATE_LIMIT" default:"120"`

	ExportDir         string  `envconfig:"EXPORT_DIR" default:"exports"`
	WorkerConcurrency int     `envconfig:"WORKER_CONCURRENCY" default:"2"`
	ExportCron        string  `envconfig:"EXPORT_CRON"`
	ExportCronUsers   []int64 `envconfig:"EXPORT_CRON_USER_IDS"`
	ExportCronProject []int64 `envconfig:"EXPORT_CRON_PROJECT_IDS"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: MANAGE_API_URL %q must be an absolute http(s) URL", ErrInvalidConfig, c.APIURL)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("%w: MANAGE_API_TIMEOUT must be positive", ErrInvalidConfig)
	}
	switch c.TokenStore {
	case TokenStoreFile, TokenStoreRedis:
	default:
		return fmt.Errorf("%w: TOKEN_STORE %q, want file or redis", ErrInvalidConfig, c.TokenStore)
	}
	if c.TokenTTL < 0 {
		return fmt.Errorf("%w: TOKEN_TTL must not be negative", ErrInvalidConfig)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: LOG_LEVEL %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("%w: WORKER_CONCURRENCY must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if c == nil || level.UnmarshalText([]byte(c.LogLevel)) != nil {
		return slog.LevelInfo
	}
	return level
}

// Redis returns the connection shared by the token store and the export queue.
func (c *Config) Redis() redisx.Options {
	return redisx.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
