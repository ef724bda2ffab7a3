package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config defines dashboard configuration.
type Config struct {
	HTTP struct {
		Port   string `yaml:"port" env:"TOLLBOARD_HTTP_PORT"`
		Secure bool   `yaml:"secure" env:"TOLLBOARD_HTTP_SECURE"`
	} `yaml:"http"`
	Observatory struct {
		BaseURL        string `yaml:"baseUrl" env:"OBSERVATORY_BASE_URL"`
		TimeoutSeconds int    `yaml:"timeoutSeconds" env:"OBSERVATORY_HTTP_TIMEOUT"`
	} `yaml:"observatory"`
	Session struct {
		Secret string `yaml:"secret" env:"TOLLBOARD_SESSION_SECRET"`
	} `yaml:"session"`
	Admin struct {
		OperatorID string `yaml:"operatorId" env:"TOLLBOARD_ADMIN_OPERATOR_ID"`
	} `yaml:"admin"`
}

// Load configuration from optional YAML file plus env overrides.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Observatory.TimeoutSeconds = 15
	cfg.Admin.OperatorID = "admin"

	if err := hydrate(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Observatory.BaseURL) == "" {
		return nil, errors.New("config: observatory base url required")
	}
	if strings.TrimSpace(cfg.Session.Secret) == "" {
		return nil, errors.New("config: session secret required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// HTTPTimeout returns observatory client timeout.
func (c *Config) HTTPTimeout() time.Duration {
	if c.Observatory.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Observatory.TimeoutSeconds) * time.Second
}
