package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration, loaded from the environment.
type Config struct {
	ServerPort     int    `env:"PORT" envDefault:"8080"`
	DatabasePath   string `env:"DATABASE_PATH" envDefault:"./taskhub.db"`
	JWTSecret      string `env:"JWT_SECRET"`
	SendgridAPIKey string `env:"SENDGRID_API_KEY"`
	MailFromName   string `env:"MAIL_FROM_NAME" envDefault:"TaskHub Team"`
	MailFromAddr   string `env:"MAIL_FROM_ADDR" envDefault:"noreply@taskhub.dev"`
	AllowedOrigin  string `env:"ALLOWED_ORIGIN" envDefault:"http://localhost:3000"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}
	return cfg, nil
}
