package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the order backend. Monetary values are
// integer minor currency units (cents).
type Config struct {
	Port                  int
	DatabaseURL           string
	FreeDeliveryThreshold int64
	DeliveryFee           int64
	RabbitMQURL           string
	CORSOrigins           []string
	MigrationsPath        string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first if present.
func Load() (*Config, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RabbitMQURL:    os.Getenv("RABBITMQ_URL"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", 4000); err != nil {
		return nil, err
	}
	if cfg.FreeDeliveryThreshold, err = getEnvInt64("FREE_DELIVERY_THRESHOLD", 28000); err != nil {
		return nil, err
	}
	if cfg.DeliveryFee, err = getEnvInt64("DELIVERY_FEE", 3500); err != nil {
		return nil, err
	}

	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.FreeDeliveryThreshold < 0 {
		return nil, fmt.Errorf("FREE_DELIVERY_THRESHOLD must not be negative")
	}
	if cfg.DeliveryFee < 0 {
		return nil, fmt.Errorf("DELIVERY_FEE must not be negative")
	}

	return cfg, nil
}

// KitchenEventsEnabled reports whether kitchen ticket publishing is configured.
func (c *Config) KitchenEventsEnabled() bool {
	return c.RabbitMQURL != ""
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, val, err)
	}
	return n, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, val, err)
	}
	return n, nil
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
