// Package common provides shared utilities for stockintel
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for stockintel
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Clients     ClientsConfig `toml:"clients"`
	Intel       IntelConfig   `toml:"intel"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ClientsConfig holds per-provider API client configurations
type ClientsConfig struct {
	Finnhub      ProviderConfig `toml:"finnhub"`
	AlphaVantage ProviderConfig `toml:"alphavantage"`
	Marketaux    ProviderConfig `toml:"marketaux"`
	Stocktwits   ProviderConfig `toml:"stocktwits"`
	CoinGecko    ProviderConfig `toml:"coingecko"`
}

// ProviderConfig holds the connection settings for one external data provider.
// RateInterval is the minimum gap between consecutive calls to the provider,
// not a sliding-window quota. DailyQuota is observational only — exceeding it
// is logged, never enforced locally.
type ProviderConfig struct {
	BaseURL      string `toml:"base_url" validate:"required,url"`
	APIKey       string `toml:"api_key"`
	RateInterval string `toml:"rate_interval"`
	MaxRetries   int    `toml:"max_retries" validate:"gte=0,lte=10"`
	RetryDelay   string `toml:"retry_delay"`
	Timeout      string `toml:"timeout"`
	DailyQuota   int    `toml:"daily_quota" validate:"gte=0"`
}

// GetRateInterval parses and returns the minimum inter-call interval
func (c *ProviderConfig) GetRateInterval() time.Duration {
	d, err := time.ParseDuration(c.RateInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// GetRetryDelay parses and returns the base retry delay
func (c *ProviderConfig) GetRetryDelay() time.Duration {
	d, err := time.ParseDuration(c.RetryDelay)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// GetTimeout parses and returns the HTTP timeout duration
func (c *ProviderConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// IntelConfig holds aggregation settings
type IntelConfig struct {
	ProviderTimeout string   `toml:"provider_timeout"`
	MaxHeadlines    int      `toml:"max_headlines" validate:"gte=0,lte=50"`
	CryptoSymbols   []string `toml:"crypto_symbols"`
}

// GetProviderTimeout parses the per-provider call timeout ceiling
func (c *IntelConfig) GetProviderTimeout() time.Duration {
	d, err := time.ParseDuration(c.ProviderTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Clients: ClientsConfig{
			Finnhub: ProviderConfig{
				BaseURL:      "https://finnhub.io/api/v1",
				RateInterval: "1100ms", // 60/min free tier
				MaxRetries:   3,
				RetryDelay:   "500ms",
				Timeout:      "30s",
				DailyQuota:   86400,
			},
			AlphaVantage: ProviderConfig{
				BaseURL:      "https://www.alphavantage.co/query",
				RateInterval: "12s", // 5/min free tier
				MaxRetries:   2,
				RetryDelay:   "1s",
				Timeout:      "30s",
				DailyQuota:   500,
			},
			Marketaux: ProviderConfig{
				BaseURL:      "https://api.marketaux.com/v1",
				RateInterval: "2s",
				MaxRetries:   2,
				RetryDelay:   "500ms",
				Timeout:      "30s",
				DailyQuota:   100,
			},
			Stocktwits: ProviderConfig{
				BaseURL:      "https://api.stocktwits.com/api/2",
				RateInterval: "2s",
				MaxRetries:   2,
				RetryDelay:   "500ms",
				Timeout:      "30s",
				DailyQuota:   200,
			},
			CoinGecko: ProviderConfig{
				BaseURL:      "https://api.coingecko.com/api/v3",
				RateInterval: "2s",
				MaxRetries:   3,
				RetryDelay:   "1s",
				Timeout:      "30s",
				DailyQuota:   10000,
			},
		},
		Intel: IntelConfig{
			ProviderTimeout: "10s",
			MaxHeadlines:    5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural configuration constraints. Missing API keys are
// checked separately at client construction, where the set of required
// providers is known.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKINTEL_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("STOCKINTEL_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("STOCKINTEL_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("STOCKINTEL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		config.Clients.Finnhub.APIKey = key
	}
	if key := os.Getenv("ALPHAVANTAGE_API_KEY"); key != "" {
		config.Clients.AlphaVantage.APIKey = key
	}
	if key := os.Getenv("MARKETAUX_API_KEY"); key != "" {
		config.Clients.Marketaux.APIKey = key
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// RequireAPIKey returns the configured key for a provider or an error naming
// the missing key. A missing key for a required provider is a deployment
// defect and aborts startup rather than degrading per-request.
func RequireAPIKey(name, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("API key for %s not configured: set clients.%s.api_key or the %s_API_KEY environment variable", name, name, strings.ToUpper(name))
	}
	return key, nil
}
