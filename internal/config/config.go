package config

import (
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the storefront client.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Base URL of the Crova REST API. The single externally supplied
	// value that selects the API origin.
	APIBaseURL string `env:"CROVA_API_URL" envDefault:"http://localhost:5000/api"`

	// Directory for persisted client state (token, recent searches).
	// Empty means the per-user config directory is used.
	StateDir string `env:"CROVA_STATE_DIR" envDefault:""`

	// HTTP timeout for API calls, in seconds.
	HTTPTimeoutSeconds int `env:"CROVA_HTTP_TIMEOUT_SECONDS" envDefault:"30"`

	// Local port for the payment gateway callback listener. 0 picks a
	// free port.
	PaymentCallbackPort int `env:"CROVA_PAYMENT_CALLBACK_PORT" envDefault:"0"`

	// Tracing
	TracingEnabled bool   `env:"CROVA_TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid API base URL %q: %w", c.APIBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("API base URL must be http or https, got %q", c.APIBaseURL)
	}
	if c.HTTPTimeoutSeconds < 1 {
		return fmt.Errorf("HTTP timeout must be at least 1 second, got %d", c.HTTPTimeoutSeconds)
	}
	if c.PaymentCallbackPort < 0 || c.PaymentCallbackPort > 65535 {
		return fmt.Errorf("invalid payment callback port: %d", c.PaymentCallbackPort)
	}
	return nil
}
