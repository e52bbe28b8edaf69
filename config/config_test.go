package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HOST", "PORT", "SEARCH_PROVIDER", "SEARCH_TIMEOUT", "NOTIFY_TIMEOUT", "CHECK_WORKERS", "CHECK_RUN_TIMEOUT", "CHECK_CRON", "ALLOWED_ORIGINS", "RATE_LIMIT_RPS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "duckduckgo", cfg.SearchProvider)
	assert.Equal(t, 15*time.Second, cfg.SearchTimeout)
	assert.Equal(t, 10*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, 4, cfg.CheckWorkers)
	assert.Equal(t, 10*time.Minute, cfg.CheckRunTimeout)
	assert.Equal(t, "0 0 */8 * * *", cfg.CronSpec)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, float64(5), cfg.RateLimitRPS)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SEARCH_PROVIDER", "google")
	t.Setenv("SEARCH_TIMEOUT", "30s")
	t.Setenv("CHECK_WORKERS", "8")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "google", cfg.SearchProvider)
	assert.Equal(t, 30*time.Second, cfg.SearchTimeout)
	assert.Equal(t, 8, cfg.CheckWorkers)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("CHECK_WORKERS", "many")
	t.Setenv("SEARCH_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT_RPS", "fast")

	cfg := Load()

	assert.Equal(t, 4, cfg.CheckWorkers)
	assert.Equal(t, 15*time.Second, cfg.SearchTimeout)
	assert.Equal(t, float64(5), cfg.RateLimitRPS)
}
