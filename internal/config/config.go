package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration. It is loaded once at startup
// and injected into the components that need it; nothing reads the
// environment after Load returns.
type Config struct {
	ServerPort    int
	DatabasePath  string
	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string // fixed operator credentials for /auth/admin-login
	AdminPassword string
	AppEnv        string // development or production
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value %q: %w", portStr, err)
	}

	ttlStr := getEnv("JWT_EXPIRES_HOURS", "168")
	ttlHours, err := strconv.Atoi(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRES_HOURS value %q: %w", ttlStr, err)
	}

	cfg := &Config{
		ServerPort:    port,
		DatabasePath:  getEnv("DATABASE_PATH", "./spendwise.db"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:      time.Duration(ttlHours) * time.Hour,
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@spendwise.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		AppEnv:        getEnv("APP_ENV", "development"),
	}

	if cfg.AppEnv == "production" && cfg.JWTSecret == "dev-secret-change-me" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
