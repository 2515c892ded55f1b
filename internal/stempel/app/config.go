package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseFile    string        // Optional: path to SQLite database file (default: ./stempel.db)
	AdminSecret     string        // Optional: plain shared admin secret (default: admin123, dev only)
	AdminSecretHash string        // Optional: Argon2id hash of the admin secret, takes precedence over AdminSecret
	AdminSessionTTL time.Duration // Optional: admin session token lifetime (default: 12h)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		DatabaseFile:    getEnvOrDefault("STEMPEL_DATABASE_FILE", "stempel.db"),
		AdminSecret:     getEnvOrDefault("STEMPEL_ADMIN_SECRET", "admin123"),
		AdminSecretHash: os.Getenv("STEMPEL_ADMIN_SECRET_HASH"),
		AdminSessionTTL: getEnvDurationOrDefault("STEMPEL_ADMIN_SESSION_TTL", 12*time.Hour),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are read as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
