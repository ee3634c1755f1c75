// Package config loads service configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTPAddr is the listen address for the HTTP server.
	HTTPAddr string
	// KafkaBrokers enables event publishing when non-empty.
	KafkaBrokers []string
	// PostgresDSN enables snapshot persistence when non-empty.
	PostgresDSN string
}

// Load reads configuration from the environment. A missing .env file
// is not an error; env vars always win over defaults.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
