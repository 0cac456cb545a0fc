// Package config holds the environment-driven configuration for the
// instruction tuning loop and its model client.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/promptune/promptune/utils"
)

type Config struct {
	Provider          string         `env:"TUNE_PROVIDER" envDefault:"openai"`
	Endpoint          string         `env:"TUNE_ENDPOINT" envDefault:"https://api.openai.com/v1/chat/completions"`
	Model             string         `env:"TUNE_MODEL" envDefault:"gpt-4o-mini"`
	Timeout           time.Duration  `env:"TUNE_HTTP_TIMEOUT" envDefault:"90s"`
	MaxRetries        int            `env:"TUNE_MAX_RETRIES" envDefault:"3"`
	RetryDelay        time.Duration  `env:"TUNE_RETRY_DELAY" envDefault:"2s"`
	RateLimitInterval time.Duration  `env:"TUNE_RATE_LIMIT_INTERVAL" envDefault:"0s"`
	LogLevel          utils.LogLevel `env:"TUNE_LOG_LEVEL" envDefault:"WARN"`
	APIKeys           map[string]string
	ExtraHeaders      map[string]string
}

// LoadConfig builds a Config from the environment. API keys are picked
// up from any *_API_KEY variable, keyed by the lowercased prefix.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		APIKeys:      make(map[string]string),
		ExtraHeaders: make(map[string]string),
	}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	loadAPIKeys(cfg)
	return cfg, nil
}

func loadAPIKeys(cfg *Config) {
	for _, envVar := range os.Environ() {
		key, value, found := strings.Cut(envVar, "=")
		if found && strings.HasSuffix(strings.ToUpper(key), "_API_KEY") {
			provider := strings.TrimSuffix(strings.ToUpper(key), "_API_KEY")
			cfg.APIKeys[strings.ToLower(provider)] = value
		}
	}
}

// APIKey returns the key for the configured provider, or "" if unset.
func (c *Config) APIKey() string {
	return c.APIKeys[strings.ToLower(c.Provider)]
}

type ConfigOption func(*Config)

func NewConfig() *Config {
	return &Config{
		Provider:     "openai",
		Endpoint:     "https://api.openai.com/v1/chat/completions",
		Model:        "gpt-4o-mini",
		Timeout:      90 * time.Second,
		MaxRetries:   3,
		RetryDelay:   2 * time.Second,
		LogLevel:     utils.LogLevelWarn,
		APIKeys:      make(map[string]string),
		ExtraHeaders: make(map[string]string),
	}
}

func SetProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

func SetEndpoint(endpoint string) ConfigOption {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

func SetModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

func SetAPIKey(apiKey string) ConfigOption {
	return func(c *Config) {
		if c.APIKeys == nil {
			c.APIKeys = make(map[string]string)
		}
		c.APIKeys[strings.ToLower(c.Provider)] = apiKey
	}
}

func SetTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

func SetMaxRetries(maxRetries int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
	}
}

func SetRetryDelay(retryDelay time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryDelay = retryDelay
	}
}

func SetRateLimitInterval(interval time.Duration) ConfigOption {
	return func(c *Config) {
		c.RateLimitInterval = interval
	}
}

func SetLogLevel(level utils.LogLevel) ConfigOption {
	return func(c *Config) {
		c.LogLevel = level
	}
}

func SetExtraHeaders(headers map[string]string) ConfigOption {
	return func(c *Config) {
		if c.ExtraHeaders == nil {
			c.ExtraHeaders = make(map[string]string)
		}
		for k, v := range headers {
			c.ExtraHeaders[k] = v
		}
	}
}

func ApplyOptions(cfg *Config, options ...ConfigOption) {
	for _, option := range options {
		option(cfg)
	}
}
