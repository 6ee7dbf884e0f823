package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/fathem/internal/infra/rpc"
)

// Load reads configuration from a YAML file. A missing file yields the
// defaults, so the client can run from environment variables alone.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if cfg.Client.APIKey == "" {
		cfg.Client.APIKey = os.Getenv("FATHEM_API_KEY")
	}
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = rpc.DefaultBaseURL
	}
	if cfg.Client.Timeout == 0 {
		cfg.Client.Timeout = rpc.DefaultTimeout
	}
	if cfg.Retry.Attempts == 0 {
		cfg.Retry.Attempts = rpc.DefaultRetryAttempts
	}
	if cfg.Retry.Delay == 0 {
		cfg.Retry.Delay = rpc.DefaultRetryDelay
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = rpc.DefaultRetryConfig.MaxDelay
	}
	if cfg.Retry.Factor == 0 {
		cfg.Retry.Factor = rpc.DefaultRetryConfig.BackoffMultiple
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func (c *AppConfig) validate() error {
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1, got %d", c.Retry.Attempts)
	}
	if c.Retry.Delay < 0 || c.Retry.MaxDelay < 0 {
		return errors.New("retry delays must not be negative")
	}
	if c.Retry.Factor < 0 {
		return fmt.Errorf("retry.factor must not be negative, got %v", c.Retry.Factor)
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		return fmt.Errorf("retry.jitter must be within [0, 1], got %v", c.Retry.Jitter)
	}
	return nil
}
