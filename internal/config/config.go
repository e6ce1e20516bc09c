package config

import (
	"fmt"
	"time"

	"github.com/loglens/loglens/internal/domain"
)

// Config holds all configuration for the loglens service.
type Config struct {
	Service       ServiceConfig       `yaml:"service"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	Channels      []ChannelConfig     `yaml:"channels"`
	Logging       LoggingConfig       `yaml:"logging"`
	CORS          CORSConfig          `yaml:"cors"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name          string        `yaml:"name"`
	Version       string        `yaml:"version"`
	Port          int           `yaml:"port"  env:"LOGLENS_PORT"`
	Debug         bool          `yaml:"debug" env:"LOGLENS_DEBUG"`
	SearchTimeout time.Duration `yaml:"search_timeout" env:"LOGLENS_SEARCH_TIMEOUT"`
}

// ElasticsearchConfig holds Elasticsearch connection configuration.
type ElasticsearchConfig struct {
	URL        string        `yaml:"url"      env:"ELASTICSEARCH_URL"`
	Username   string        `yaml:"username" env:"ELASTICSEARCH_USERNAME"`
	Password   string        `yaml:"password" env:"ELASTICSEARCH_PASSWORD"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ChannelConfig maps a log channel to its index and field names.
type ChannelConfig struct {
	ID             string `yaml:"id"`
	Index          string `yaml:"index"`
	TimestampField string `yaml:"timestamp_field"`
	TextField      string `yaml:"text_field"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled"`
	AllowedOrigins   []string `yaml:"allowed_origins" env:"CORS_ORIGINS"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load loads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := loadFile(path, &cfg); err != nil {
		return nil, err
	}

	setDefaults(&cfg)
	// Re-apply env overrides after defaults (env always wins)
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "loglens"
	}
	if cfg.Service.Version == "" {
		cfg.Service.Version = "1.0.0"
	}
	if cfg.Service.Port == 0 {
		cfg.Service.Port = 8094
	}
	if cfg.Service.SearchTimeout == 0 {
		cfg.Service.SearchTimeout = 10 * time.Second
	}

	if cfg.Elasticsearch.URL == "" {
		cfg.Elasticsearch.URL = "http://localhost:9200"
	}
	if cfg.Elasticsearch.MaxRetries == 0 {
		cfg.Elasticsearch.MaxRetries = 3
	}
	if cfg.Elasticsearch.Timeout == 0 {
		cfg.Elasticsearch.Timeout = 30 * time.Second
	}

	// Index and field names of the two production log stores.
	if len(cfg.Channels) == 0 {
		cfg.Channels = []ChannelConfig{
			{ID: domain.ChannelCalls, Index: "transcriptions_index", TimestampField: "called_at", TextField: "utterance"},
			{ID: domain.ChannelEmails, Index: "intercoms_index", TimestampField: "created_at", TextField: "body"},
		}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.CORS.AllowedMethods) == 0 {
		cfg.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.CORS.AllowedHeaders) == 0 {
		cfg.CORS.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return &ValidationError{Field: "service.port", Message: fmt.Sprintf("invalid port: %d", c.Service.Port)}
	}
	if c.Elasticsearch.URL == "" {
		return &ValidationError{Field: "elasticsearch.url", Message: "is required"}
	}
	if len(c.Channels) == 0 {
		return &ValidationError{Field: "channels", Message: "at least one channel is required"}
	}
	for i, ch := range c.Channels {
		if ch.ID == "" {
			return &ValidationError{Field: fmt.Sprintf("channels[%d].id", i), Message: "is required"}
		}
		if ch.Index == "" {
			return &ValidationError{Field: fmt.Sprintf("channels[%d].index", i), Message: "is required"}
		}
		if ch.TimestampField == "" {
			return &ValidationError{Field: fmt.Sprintf("channels[%d].timestamp_field", i), Message: "is required"}
		}
		if ch.TextField == "" {
			return &ValidationError{Field: fmt.Sprintf("channels[%d].text_field", i), Message: "is required"}
		}
	}
	if err := validateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	return validateLogFormat(c.Logging.Format)
}

// ChannelSpecs converts the configured channels to domain specs,
// preserving configuration order.
func (c *Config) ChannelSpecs() []domain.ChannelSpec {
	specs := make([]domain.ChannelSpec, 0, len(c.Channels))
	for _, ch := range c.Channels {
		specs = append(specs, domain.ChannelSpec{
			ID:             ch.ID,
			Index:          ch.Index,
			TimestampField: ch.TimestampField,
			TextField:      ch.TextField,
		})
	}
	return specs
}

func validateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return nil
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error, fatal"}
	}
}

func validateLogFormat(format string) error {
	switch format {
	case "json", "console":
		return nil
	default:
		return &ValidationError{Field: "logging.format", Message: "must be one of: json, console"}
	}
}
