package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

var globalConfig *Config

const (
	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds all environment backed configuration for the chat service.
type Config struct {
	// HTTP Server
	HTTPPort           int      `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort        int      `env:"METRICS_PORT" envDefault:"9091"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Database. postgres:// and postgresql:// use PostgreSQL, sqlite:// a local file.
	DatabaseURL       string        `env:"DATABASE_URL" envDefault:"sqlite://multichat.db"`
	DBReadReplicaDSN  string        `env:"DB_READ_REPLICA_DSN"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"50"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	AutoMigrate       bool          `env:"AUTO_MIGRATE" envDefault:"true"`

	// Providers
	OpenAIAPIKey       string                  `env:"OPENAI_API_KEY"`
	AnthropicAPIKey    string                  `env:"CLAUDE_API_KEY"`
	GoogleAPIKey       string                  `env:"GOOGLE_API_KEY"`
	OpenAIBaseURL      string                  `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	AnthropicBaseURL   string                  `env:"ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com/v1"`
	GoogleBaseURL      string                  `env:"GOOGLE_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	ProviderTimeout    time.Duration           `env:"PROVIDER_TIMEOUT" envDefault:"120s"`
	ProviderConfigFile string                  `env:"PROVIDER_CONFIG_FILE"`
	ProviderOverrides  map[string]ProviderTune `env:"-"`

	// Chat orchestration
	PersistAssistantReplies bool `env:"PERSIST_ASSISTANT_REPLIES" envDefault:"false"`

	// Message list cache
	CacheBackend string        `env:"CACHE_BACKEND" envDefault:"none"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	CacheSize    int           `env:"CACHE_SIZE" envDefault:"1024"`
	RedisURL     string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Observability / Logging
	OTELEnabled    bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName    string `env:"SERVICE_NAME" envDefault:"multichat"`
	ServiceVersion string `env:"SERVICE_VERSION" envDefault:"dev"`
	Environment    string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	configFile := strings.TrimSpace(cfg.ProviderConfigFile)
	explicit := configFile != ""
	if !explicit {
		configFile = DefaultProviderConfigFile
	}
	overrides, err := LoadProviderOverrides(configFile, explicit)
	if err != nil {
		return nil, fmt.Errorf("load provider config: %w", err)
	}
	cfg.ProviderOverrides = overrides

	globalConfig = cfg
	return cfg, nil
}

func (c *Config) normalize() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.CacheBackend = strings.ToLower(strings.TrimSpace(c.CacheBackend))

	switch c.CacheBackend {
	case "", CacheBackendNone:
		c.CacheBackend = CacheBackendNone
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q", c.CacheBackend)
	}

	for name, raw := range map[string]string{
		"OPENAI_BASE_URL":    c.OpenAIBaseURL,
		"ANTHROPIC_BASE_URL": c.AnthropicBaseURL,
		"GOOGLE_BASE_URL":    c.GoogleBaseURL,
	} {
		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive, got %s", c.ProviderTimeout)
	}
	return nil
}

// GetGlobal returns the config loaded by the last successful Load.
func GetGlobal() *Config {
	return globalConfig
}

// Tune returns the yaml overrides for a provider, or the zero value.
func (c *Config) Tune(provider string) ProviderTune {
	if c == nil || c.ProviderOverrides == nil {
		return ProviderTune{}
	}
	return c.ProviderOverrides[provider]
}

var Version = "dev"
