package config

import (
	"time"

	"github.com/vietddude/fathem/internal/infra/rpc"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Client  ClientConfig  `yaml:"client"`
	Retry   RetryConfig   `yaml:"retry"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// ClientConfig holds API connection settings.
type ClientConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RetryConfig holds the retry policy applied to every call.
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`  // total attempts, including the first
	Delay    time.Duration `yaml:"delay"`     // wait before the second attempt
	MaxDelay time.Duration `yaml:"max_delay"` // cap on every wait
	Factor   float64       `yaml:"factor"`    // backoff multiplier
	Jitter   float64       `yaml:"jitter"`    // 0 = deterministic
}

// MetricsConfig holds the prometheus endpoint settings.
type MetricsConfig struct {
	Port int `yaml:"port"` // 0 = disabled
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// RPC converts the file configuration into client settings.
func (c *AppConfig) RPC() rpc.Config {
	return rpc.Config{
		APIKey:  c.Client.APIKey,
		BaseURL: c.Client.BaseURL,
		Timeout: c.Client.Timeout,
		Retry: rpc.RetryConfig{
			MaxAttempts:     c.Retry.Attempts,
			InitialDelay:    c.Retry.Delay,
			MaxDelay:        c.Retry.MaxDelay,
			BackoffMultiple: c.Retry.Factor,
			Jitter:          c.Retry.Jitter,
		},
	}
}
