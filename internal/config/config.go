// Package config handles configuration loading for sastocks.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Polygon   PolygonConfig   `mapstructure:"polygon"   yaml:"polygon"`
	Database  DatabaseConfig  `mapstructure:"database"  yaml:"database"`
	Ingest    IngestConfig    `mapstructure:"ingest"    yaml:"ingest"`
	Feeds     FeedsConfig     `mapstructure:"feeds"     yaml:"feeds"`
	LLM       LLMConfig       `mapstructure:"llm"       yaml:"llm"`
	Sentiment SentimentConfig `mapstructure:"sentiment" yaml:"sentiment"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// PolygonConfig holds market-data provider settings.
type PolygonConfig struct {
	APIKey     string        `mapstructure:"api_key"     yaml:"api_key"`
	BaseURL    string        `mapstructure:"base_url"    yaml:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"     yaml:"timeout"`
	RateLimit  int           `mapstructure:"rate_limit"  yaml:"rate_limit"` // requests per window, 0 = unlimited
	RateWindow time.Duration `mapstructure:"rate_window" yaml:"rate_window"`
}

// DatabaseConfig selects the relational store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // "sqlite", "postgres", "mysql"
	DSN    string `mapstructure:"dsn"    yaml:"dsn"`
}

// IngestConfig tunes the ingestion runs.
type IngestConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"` // symbols processed in parallel within a day
	NewsLimit   int `mapstructure:"news_limit"  yaml:"news_limit"`
}

// FeedsConfig holds the RSS headline source settings.
type FeedsConfig struct {
	URLTemplate string        `mapstructure:"url_template" yaml:"url_template"` // "{ticker}" is substituted
	Timeout     time.Duration `mapstructure:"timeout"      yaml:"timeout"`
	RateLimit   int           `mapstructure:"rate_limit"   yaml:"rate_limit"`
	RateWindow  time.Duration `mapstructure:"rate_window"  yaml:"rate_window"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"    yaml:"provider"` // "openai", "ollama"
	OpenAIKey   string        `mapstructure:"openai_key"  yaml:"openai_key"`
	OpenAIURL   string        `mapstructure:"openai_url"  yaml:"openai_url"`
	OllamaURL   string        `mapstructure:"ollama_url"  yaml:"ollama_url"`
	Model       string        `mapstructure:"model"       yaml:"model"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"  yaml:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"     yaml:"timeout"`
}

// SentimentConfig configures the article annotator.
type SentimentConfig struct {
	Classifier string `mapstructure:"classifier" yaml:"classifier"` // "llm" or "keyword"
	Term       string `mapstructure:"term"       yaml:"term"`       // e.g., "short", "long"
	BatchSize  int    `mapstructure:"batch_size" yaml:"batch_size"` // 0 = all unlabelled articles
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.sastocks/config.yaml (home directory)
//  3. /etc/sastocks/config.yaml (system)
//
// Environment variables override config file values.
// Format: SASTOCKS_<SECTION>_<KEY>, e.g., SASTOCKS_POLYGON_API_KEY
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".sastocks"))
	v.AddConfigPath("/etc/sastocks")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SASTOCKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the ingestion pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("config: unsupported database.driver %q", c.Database.Driver)
	}
	if c.Ingest.Concurrency < 1 {
		return fmt.Errorf("config: ingest.concurrency must be >= 1, got %d", c.Ingest.Concurrency)
	}
	if c.Polygon.RateLimit < 0 {
		return fmt.Errorf("config: polygon.rate_limit must be >= 0, got %d", c.Polygon.RateLimit)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("polygon.api_key", "")
	v.SetDefault("polygon.base_url", "https://api.polygon.io")
	v.SetDefault("polygon.timeout", 30*time.Second)
	v.SetDefault("polygon.rate_limit", 0)
	v.SetDefault("polygon.rate_window", time.Minute)

	// Store defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "sastocks_db.sqlite")

	// Ingestion defaults (sequential, like a manual run)
	v.SetDefault("ingest.concurrency", 1)
	v.SetDefault("ingest.news_limit", 10)

	v.SetDefault("feeds.url_template", "https://feeds.finance.yahoo.com/rss/2.0/headline?s={ticker}&region=US&lang=en-US")
	v.SetDefault("feeds.timeout", 15*time.Second)
	v.SetDefault("feeds.rate_limit", 2)
	v.SetDefault("feeds.rate_window", time.Second)

	// LLM defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.openai_key", "")
	v.SetDefault("llm.openai_url", "https://api.openai.com/v1")
	v.SetDefault("llm.ollama_url", "http://localhost:11434")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 256)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("sentiment.classifier", "llm")
	v.SetDefault("sentiment.term", "short")
	v.SetDefault("sentiment.batch_size", 0)

	// API defaults
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Fallback environment variables honoured for credentials.
const (
	EnvPolygonKey       = "SASTOCKS_POLYGON_API_KEY"
	EnvPolygonKeyLegacy = "POLYGON_API_KEY"
	EnvOpenAIKey        = "SASTOCKS_LLM_OPENAI_KEY"
	EnvOpenAIKeyLegacy  = "OPENAI_API_KEY"
)

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := firstEnv(EnvPolygonKey, EnvPolygonKeyLegacy); key != "" {
		cfg.Polygon.APIKey = key
	}
	if key := firstEnv(EnvOpenAIKey, EnvOpenAIKeyLegacy); key != "" {
		cfg.LLM.OpenAIKey = key
	}
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
