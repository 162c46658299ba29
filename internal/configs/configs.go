/*
Package configs is responsible for loading and validating the application's configuration settings.

All settings come from operating system environment variables: the running environment,
the listen port, allowed WebSocket/CORS origins, the extra content policy terms and the
rate limits applied to connections and inbound events.
*/
package configs

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Server Settings
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        int    `env:"PORT" envDefault:"3000"`

	// Security Settings
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Content Policy Settings
	BlockedWords []string `env:"BLOCKED_WORDS" envSeparator:","`

	// Flood Control Settings
	MessageRate  float64 `env:"MESSAGE_RATE" envDefault:"5"`
	MessageBurst int     `env:"MESSAGE_BURST" envDefault:"10"`
	ConnectRate  float64 `env:"CONNECT_RATE" envDefault:"0.5"`
	ConnectBurst int     `env:"CONNECT_BURST" envDefault:"5"`

	// SendQueueSize is the number of outbound events buffered per connection before it is evicted as a slow consumer.
	SendQueueSize int `env:"SEND_QUEUE_SIZE" envDefault:"256"`
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads and validates the application configuration from environment variables.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// normalize trims list entries and rejects out-of-range values.
func (c *AppConfig) normalize() error {
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", c.Port, 1024, 65535)
	}

	c.AllowedOrigins = trimAll(c.AllowedOrigins)
	c.BlockedWords = trimAll(c.BlockedWords)

	if !c.IsDevelopment() && len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS environment variable is required in %s environment", c.Environment)
	}

	if c.MessageRate <= 0 || c.MessageBurst <= 0 {
		return fmt.Errorf("MESSAGE_RATE and MESSAGE_BURST must be positive, got %v and %d", c.MessageRate, c.MessageBurst)
	}

	if c.ConnectRate <= 0 || c.ConnectBurst <= 0 {
		return fmt.Errorf("CONNECT_RATE and CONNECT_BURST must be positive, got %v and %d", c.ConnectRate, c.ConnectBurst)
	}

	if c.SendQueueSize <= 0 {
		return fmt.Errorf("SEND_QUEUE_SIZE must be positive, got %d", c.SendQueueSize)
	}

	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
