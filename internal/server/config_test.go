package server

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.AllowedOrigins)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, int64(8192), cfg.MaxMessageSize)
	assert.Equal(t, RateLimitConfig{Burst: 5, RefillInterval: time.Second}, cfg.RateLimit)
	assert.Equal(t, HTTPRateLimitConfig{Requests: 100, Window: time.Minute}, cfg.HTTPRateLimit)
	assert.False(t, cfg.IsProduction())
}

func TestSanitizeFillsInvalidValues(t *testing.T) {
	cfg := Config{
		Port:           "3000",
		MaxMessageSize: -1,
		RateLimit:      RateLimitConfig{Burst: 0, RefillInterval: -time.Second},
	}.Sanitize()

	def := DefaultConfig()
	assert.Equal(t, ":3000", cfg.Port)
	assert.Equal(t, def.MaxMessageSize, cfg.MaxMessageSize)
	assert.Equal(t, def.RateLimit, cfg.RateLimit)
	assert.Equal(t, def.HTTPRateLimit, cfg.HTTPRateLimit)
	assert.Equal(t, def.ShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestSanitizeCopiesOrigins(t *testing.T) {
	origins := []string{"http://a.example"}
	cfg := Config{AllowedOrigins: origins}.Sanitize()
	origins[0] = "mutated"
	assert.Equal(t, "http://a.example", cfg.AllowedOrigins[0])
}

func TestNormalizePort(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"8080":           ":8080",
		":9090":          ":9090",
		"127.0.0.1:7000": "127.0.0.1:7000",
		"  3000 ":        ":3000",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizePort(in), "input %q", in)
	}
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t,
		[]string{"http://a.example", "https://b.example", "*"},
		parseOrigins(" http://a.example, https://b.example ,,* "))
	assert.Empty(t, parseOrigins(""))
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAX_MESSAGE_SIZE", "2048")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("HTTP_RATE_LIMIT", "50")
	t.Setenv("HTTP_RATE_WINDOW", "30s")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, int64(2048), cfg.MaxMessageSize)
	assert.Equal(t, RateLimitConfig{Burst: 10, RefillInterval: 2 * time.Second}, cfg.RateLimit)
	assert.Equal(t, HTTPRateLimitConfig{Requests: 50, Window: 30 * time.Second}, cfg.HTTPRateLimit)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoadConfigToleratesMissingEnvFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir() + "/absent.env")
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Port)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
