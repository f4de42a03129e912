// Package config provides unified configuration loading for GameVault.
// Supports YAML files, .env files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for GameVault.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Cache         CacheConfig         `yaml:"cache"`
	Throttle      ThrottleConfig      `yaml:"throttle"`
	Intent        IntentConfig        `yaml:"intent"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Search        SearchConfig        `yaml:"search"`
	Audit         AuditConfig         `yaml:"audit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout" validate:"gt=0"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Driver     string      `yaml:"driver" validate:"oneof=memory redis"`
	MaxEntries int         `yaml:"max_entries" validate:"gte=0"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// ThrottleConfig holds per-client admission settings.
type ThrottleConfig struct {
	Capacity int           `yaml:"capacity" validate:"min=1"`
	Window   time.Duration `yaml:"window" validate:"gte=1s"`
}

// IntentConfig holds the LLM intent extractor settings.
type IntentConfig struct {
	BaseURL     string        `yaml:"base_url" validate:"required,url"`
	APIKey      string        `yaml:"api_key"`
	ProjectID   string        `yaml:"project_id"`
	Model       string        `yaml:"model" validate:"required"`
	Temperature float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	CacheTTL    time.Duration `yaml:"cache_ttl" validate:"gt=0"`
	MaxRetries  int           `yaml:"max_retries" validate:"gte=0,lte=5"`
}

// CatalogConfig holds the RAWG catalog settings.
type CatalogConfig struct {
	BaseURL   string        `yaml:"base_url" validate:"required,url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
	HintLimit int           `yaml:"hint_limit" validate:"min=1,max=40"`
	UserAgent string        `yaml:"user_agent"`
	Breaker   BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for the catalog client.
type BreakerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	MinRequests  uint32        `yaml:"min_requests"`
	FailureRatio float64       `yaml:"failure_ratio" validate:"gte=0,lte=1"`
	Interval     time.Duration `yaml:"interval"`
	OpenTimeout  time.Duration `yaml:"open_timeout"`
}

// SearchConfig holds result shaping settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit" validate:"min=1"`
	MaxLimit     int `yaml:"max_limit" validate:"min=1,max=20,gtefield=DefaultLimit"`
	FranchiseCap int `yaml:"franchise_cap" validate:"min=1"`
}

// AuditConfig holds search audit log settings.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver" validate:"oneof=sqlite3 postgres"`
	DSN     string `yaml:"dsn"`
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format" validate:"oneof=json console"`
	ServiceName    string `yaml:"service_name"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// Load reads configuration from a YAML file and applies .env and environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      15 * time.Second,
			WriteTimeout:     30 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   20 * time.Second,
			GracefulShutdown: 10 * time.Second,
			AllowedOrigins:   []string{"*"},
		},
		Cache: CacheConfig{
			Driver:     "memory",
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
				Prefix:   "gv:",
			},
		},
		Throttle: ThrottleConfig{
			Capacity: 5,
			Window:   10 * time.Second,
		},
		Intent: IntentConfig{
			BaseURL:     "https://api.openai.com/v1/",
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			Timeout:     8 * time.Second,
			CacheTTL:    30 * time.Minute,
			MaxRetries:  1,
		},
		Catalog: CatalogConfig{
			BaseURL:   "https://api.rawg.io/api/",
			Timeout:   5 * time.Second,
			HintLimit: 5,
			UserAgent: "GameVault/1.0",
			Breaker: BreakerConfig{
				Enabled:      true,
				MinRequests:  10,
				FailureRatio: 0.6,
				Interval:     time.Minute,
				OpenTimeout:  30 * time.Second,
			},
		},
		Search: SearchConfig{
			DefaultLimit: 10,
			MaxLimit:     20,
			FranchiseCap: 1,
		},
		Audit: AuditConfig{
			Enabled: false,
			Driver:  "sqlite3",
			DSN:     "file:gamevault.db?_journal_mode=WAL",
		},
		Observability: ObservabilityConfig{
			LogLevel:       "info",
			LogFormat:      "json",
			ServiceName:    "gamevault",
			MetricsEnabled: true,
		},
	}
}

var validate = validator.New()

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Cache.Driver == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("redis cache requires an address")
	}
	if c.Audit.Enabled && c.Audit.DSN == "" {
		return fmt.Errorf("audit log requires a dsn")
	}
	// The extractor call, the main search and the hint searches run in
	// sequence; a shorter request timeout answers 504 instead of a degraded 200.
	if budget := c.PipelineBudget(); c.Server.RequestTimeout <= budget {
		return fmt.Errorf("server.request_timeout (%s) must exceed intent.timeout + 2*catalog.timeout (%s)",
			c.Server.RequestTimeout, budget)
	}
	return nil
}

// PipelineBudget is the longest a search can spend waiting on the extractor
// and the catalog before it answers.
func (c *Config) PipelineBudget() time.Duration {
	return c.Intent.Timeout + 2*c.Catalog.Timeout
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}

	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.Intent.APIKey = v
	}

	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.Intent.BaseURL = v
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.Intent.Model = v
	}

	if v := os.Getenv("LLM_PROJECT_ID"); v != "" {
		cfg.Intent.ProjectID = v
	}

	if v := os.Getenv("RAWG_API_KEY"); v != "" {
		cfg.Catalog.APIKey = v
	}

	if v := os.Getenv("RAWG_BASE_URL"); v != "" {
		cfg.Catalog.BaseURL = v
	}

	if v := os.Getenv("AUDIT_DATABASE_URL"); v != "" {
		cfg.Audit.Enabled = true
		if strings.HasPrefix(v, "postgres") {
			cfg.Audit.Driver = "postgres"
			cfg.Audit.DSN = v
		} else {
			cfg.Audit.Driver = "sqlite3"
			cfg.Audit.DSN = strings.TrimPrefix(v, "sqlite:")
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
