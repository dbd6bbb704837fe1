// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the server binary's settings.
type Config struct {
	Port         int    `env:"PORT" envDefault:"8000"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"networth.db"`
	SecureCookie bool   `env:"SECURE_COOKIE" envDefault:"false"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
