// Package config loads storefront settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	PaymentsAPIURL  string
	PaymentsTimeout time.Duration

	StorageDriver string
	SQLitePath    string
	PostgresURL   string
	RedisURL      string

	KafkaBrokers  []string
	PaymentTopic  string
	ConsumerGroup string

	OTelEnabled    bool
	OTLPEndpoint   string
	ServiceVersion string

	LogFile        string
	MigrationsPath string
}

// Load reads configuration from the environment. A .env file in the working
// directory, when present, fills in variables that are not already set.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		PaymentsAPIURL:  strings.TrimRight(getEnv("PAYMENTS_API_URL", "http://localhost:5000/api"), "/"),
		PaymentsTimeout: getDuration("PAYMENTS_TIMEOUT", 10*time.Second),
		StorageDriver:   strings.ToLower(getEnv("STORAGE_DRIVER", "sqlite")),
		SQLitePath:      getEnv("SQLITE_PATH", "storefront.db"),
		PostgresURL:     os.Getenv("POSTGRES_URL"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		PaymentTopic:    getEnv("PAYMENT_TOPIC", "payment.completed"),
		ConsumerGroup:   getEnv("KAFKA_CONSUMER_GROUP", "storefront-receipts"),
		OTelEnabled:     getBool("OTEL_ENABLED", false),
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		ServiceVersion:  getEnv("SERVICE_VERSION", "0.1.0"),
		LogFile:         os.Getenv("SHOP_LOG_FILE"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "file://migrations"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean in environment", "key", key, "value", v)
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration in environment", "key", key, "value", v)
		return def
	}
	return d
}
