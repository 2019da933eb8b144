// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultJWTSecret  = "dev-secret-change-in-production"
	defaultSecretCode = "CIPELEM2025"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"

	// Storage. An empty DatabaseURL selects the in-memory store.
	DatabaseURL string

	// Redis (notification fan-out & rate limiting). Empty disables it.
	RedisURL string

	// Security
	JWTSecret       string
	JWTTTL          time.Duration
	AllowedOrigins  []string
	RateLimitRPM    int
	StaffSecretCode string

	// Ledger integrity tree
	IntegrityRebuildInterval time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		JWTSecret:       getEnv("JWT_SECRET", defaultJWTSecret),
		JWTTTL:          getEnvDuration("JWT_TTL", 24*time.Hour),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		RateLimitRPM:    getEnvInt("RATE_LIMIT_RPM", 60),
		StaffSecretCode: getEnv("STAFF_SECRET_CODE", defaultSecretCode),

		IntegrityRebuildInterval: getEnvDuration("INTEGRITY_REBUILD_INTERVAL", 5*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the server runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate rejects settings that are unsafe or unusable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d is out of range", c.Port)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.IntegrityRebuildInterval <= 0 {
		return fmt.Errorf("INTEGRITY_REBUILD_INTERVAL must be positive")
	}
	if c.IsProduction() {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.StaffSecretCode == defaultSecretCode {
			return fmt.Errorf("STAFF_SECRET_CODE must be set in production")
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s", "5m") or a bare number of minutes
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if m, err := strconv.Atoi(val); err == nil {
		return time.Duration(m) * time.Minute
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
