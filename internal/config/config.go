// Package config provides configuration management for the corpus service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the corpus service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Store contains corpus document paths.
	Store StoreConfig `mapstructure:"store"`
	// Providers contains metadata provider client settings.
	Providers ProvidersConfig `mapstructure:"providers"`
	// Enrich contains batch enrichment settings.
	Enrich EnrichConfig `mapstructure:"enrich"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading the request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// StoreConfig holds the corpus document paths.
type StoreConfig struct {
	// RawPath is the path of the raw-record corpus JSON document.
	RawPath string `mapstructure:"raw_path"`
	// NormalizedPath is the path of the normalized corpus JSON document.
	NormalizedPath string `mapstructure:"normalized_path"`
}

// ProvidersConfig holds metadata provider client settings.
type ProvidersConfig struct {
	// Crossref configures the JSON citation registry client.
	Crossref CrossrefConfig `mapstructure:"crossref"`
	// PubMed configures the XML biomedical database client.
	PubMed PubMedConfig `mapstructure:"pubmed"`
}

// CrossrefConfig holds citation registry client settings.
type CrossrefConfig struct {
	// BaseURL is the registry REST API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Email is the contact address for the polite pool User-Agent.
	Email string `mapstructure:"email"`
	// Timeout is the request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// PubMedConfig holds biomedical database client settings.
type PubMedConfig struct {
	// BaseURL is the E-utilities base URL.
	BaseURL string `mapstructure:"base_url"`
	// Tool identifies the calling application to NCBI.
	Tool string `mapstructure:"tool"`
	// Email is the contact address sent with every request.
	Email string `mapstructure:"email"`
	// APIKey is the NCBI API key. Loaded exclusively from the environment.
	APIKey string `mapstructure:"-"`
	// Timeout is the request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second (3 without an API key).
	RateLimit float64 `mapstructure:"rate_limit"`
}

// EnrichConfig holds batch enrichment settings.
type EnrichConfig struct {
	// Workers is the bounded worker pool size; one outstanding provider
	// request per record.
	Workers int `mapstructure:"workers"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CORPUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/corpus-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars and defaults cover everything.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Secrets are loaded exclusively from environment variables.
	cfg.Providers.PubMed.APIKey = os.Getenv("CORPUS_PROVIDERS_PUBMED_API_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("store.raw_path", "data/corpus.json")
	v.SetDefault("store.normalized_path", "data/corpus.normalized.json")

	v.SetDefault("providers.crossref.base_url", "https://api.crossref.org")
	v.SetDefault("providers.crossref.email", "")
	v.SetDefault("providers.crossref.timeout", "30s")
	v.SetDefault("providers.crossref.rate_limit", 10.0)

	v.SetDefault("providers.pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("providers.pubmed.tool", "arrestlit-corpus-service")
	v.SetDefault("providers.pubmed.email", "")
	v.SetDefault("providers.pubmed.timeout", "30s")
	// NCBI allows at most 3 req/sec without an API key.
	v.SetDefault("providers.pubmed.rate_limit", 3.0)

	v.SetDefault("enrich.workers", 4)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Store.RawPath == "" {
		return fmt.Errorf("store raw_path is required")
	}
	if c.Store.NormalizedPath == "" {
		return fmt.Errorf("store normalized_path is required")
	}

	if c.Providers.Crossref.RateLimit <= 0 {
		return fmt.Errorf("crossref rate_limit must be positive")
	}
	if c.Providers.PubMed.RateLimit <= 0 {
		return fmt.Errorf("pubmed rate_limit must be positive")
	}
	if c.Providers.PubMed.APIKey == "" && c.Providers.PubMed.RateLimit > 3 {
		return fmt.Errorf("pubmed rate_limit above 3 req/sec requires CORPUS_PROVIDERS_PUBMED_API_KEY")
	}

	if c.Enrich.Workers <= 0 {
		return fmt.Errorf("enrich workers must be positive")
	}

	return nil
}
