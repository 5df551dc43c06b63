package payment

import (
	"errors"
	"net/url"
	"time"

	"github.com/restoreops/backend/internal/infrastructure/config"
)

const defaultGatewayTimeout = 30 * time.Second

// CardGatewayConfig contains configuration for the card gateway REST API
type CardGatewayConfig struct {
	// BaseURL is the gateway API root, e.g. https://api.gateway.example
	BaseURL string
	// APIKey is sent as a bearer token
	APIKey string
	// Currency is the ISO 4217 code charges are made in
	Currency string
	// Timeout bounds a single API call
	Timeout time.Duration
}

// Errors for configuration validation
var (
	ErrGatewayMissingBaseURL = errors.New("card gateway: missing base URL")
	ErrGatewayInvalidBaseURL = errors.New("card gateway: invalid base URL")
	ErrGatewayMissingAPIKey  = errors.New("card gateway: missing API key")
)

// NewCardGatewayConfig maps application configuration
func NewCardGatewayConfig(cfg config.CardGatewayConfig) *CardGatewayConfig {
	return &CardGatewayConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	}
}

// Validate validates the configuration and fills defaults
func (c *CardGatewayConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrGatewayMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrGatewayInvalidBaseURL
	}
	if c.APIKey == "" {
		return ErrGatewayMissingAPIKey
	}
	if c.Currency == "" {
		c.Currency = "AUD"
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultGatewayTimeout
	}
	return nil
}
