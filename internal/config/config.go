package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DBUrl           string
	RedisURL        string
	JWTSecret       string
	DirectoryURL    string
	DirectoryAPIKey string
	DirectoryTTL    time.Duration
	AppEnv          string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	directoryTTL, err := getEnvDuration("DIRECTORY_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		DBUrl:           getEnv("DB_URL", ""),
		RedisURL:        getEnv("REDIS_URL", ""),
		JWTSecret:       jwtSecret,
		DirectoryURL:    getEnv("DIRECTORY_URL", ""),
		DirectoryAPIKey: getEnv("DIRECTORY_API_KEY", ""),
		DirectoryTTL:    directoryTTL,
		AppEnv:          normalizeEnv(getEnv("APP_ENV", "production")),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	return parsed, nil
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
