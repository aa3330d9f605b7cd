package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Fit      FitConfig
}

// ServerConfig holds fitting service settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string // empty disables persistence
}

// FitConfig holds pipeline defaults
type FitConfig struct {
	Workers            int
	UseJump            bool
	ThresholdIntercept float64
	ThresholdConstant  float64
}

// Load builds the configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Fit: FitConfig{
			UseJump: getEnvBool("FIT_USE_JUMP", true),
		},
	}

	var err error
	if cfg.Fit.Workers, err = getEnvInt("FIT_WORKERS", 0); err != nil {
		return nil, err
	}
	if cfg.Fit.ThresholdIntercept, err = getEnvFloat("JUMP_THRESHOLD_INTERCEPT", 5.5); err != nil {
		return nil, err
	}
	if cfg.Fit.ThresholdConstant, err = getEnvFloat("JUMP_THRESHOLD_CONSTANT", 1.0/3.0); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvBool(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return fallback
}
