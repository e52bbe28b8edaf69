package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration for the tracker
type Config struct {
	DatabaseURL string
	Host        string
	Port        string

	TelegramBotToken string
	CronSecret       string

	// SearchProvider selects the search backend: "duckduckgo" or "google"
	SearchProvider       string
	GoogleAPIKey         string
	GoogleSearchEngineID string

	SearchTimeout time.Duration
	NotifyTimeout time.Duration

	// CheckWorkers bounds the reconciliation fan-out
	CheckWorkers int
	// CheckRunTimeout caps the wall-clock time of one scheduled run
	CheckRunTimeout time.Duration
	CronSpec        string

	AllowedOrigins []string
	RateLimitRPS   float64
}

// Load reads the configuration from the environment
func Load() *Config {
	return &Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		Host:                 getEnv("HOST", "0.0.0.0"),
		Port:                 getEnv("PORT", "8080"),
		TelegramBotToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		CronSecret:           os.Getenv("CRON_SECRET"),
		SearchProvider:       getEnv("SEARCH_PROVIDER", "duckduckgo"),
		GoogleAPIKey:         os.Getenv("GOOGLE_API_KEY"),
		GoogleSearchEngineID: os.Getenv("GOOGLE_SEARCH_ENGINE_ID"),
		SearchTimeout:        getEnvDuration("SEARCH_TIMEOUT", 15*time.Second),
		NotifyTimeout:        getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
		CheckWorkers:         getEnvInt("CHECK_WORKERS", 4),
		CheckRunTimeout:      getEnvDuration("CHECK_RUN_TIMEOUT", 10*time.Minute),
		CronSpec:             getEnv("CHECK_CRON", "0 0 */8 * * *"),
		AllowedOrigins:       getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RateLimitRPS:         getEnvFloat("RATE_LIMIT_RPS", 5),
	}
}

// getEnv retrieves an environment variable with a fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback
func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvFloat retrieves a float environment variable with a fallback
func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvDuration retrieves a duration environment variable with a fallback
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvList retrieves a comma-separated environment variable with a fallback
func getEnvList(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return fallback
}
