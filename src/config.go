package src

import (
	"fmt"
	"strings"

	"school_portal/src/model"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LogConfig    model.LogConfig    `envconfig:"LOG"`
	APIConfig    model.APIConfig    `envconfig:"API"`
	CacheConfig  model.CacheConfig  `envconfig:"CACHE"`
	ServerConfig model.ServerConfig `envconfig:"SERVER"`
	RedisURL     string             `envconfig:"REDIS_URL"`
}

func LoadConfig() (*Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the service cannot start with
func (c *Config) Validate() error {
	if c.APIConfig.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}

	switch strings.ToLower(c.CacheConfig.Backend) {
	case "memory", "file":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("invalid cache backend: %s. Must be 'memory', 'file' or 'redis'", c.CacheConfig.Backend)
	}

	if c.ServerConfig.Port < 1 || c.ServerConfig.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.ServerConfig.Port)
	}

	return nil
}
