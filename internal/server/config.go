// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the chat service.
package server

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// HTTPRateLimitConfig bounds the number of HTTP requests a single client IP
// may issue per window.
type HTTPRateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Config holds the server configuration settings including security controls.
type Config struct {
	Port            string
	AllowedOrigins  []string
	Environment     string
	LogLevel        string
	MaxMessageSize  int64
	RateLimit       RateLimitConfig
	HTTPRateLimit   HTTPRateLimitConfig
	ShutdownTimeout time.Duration
}

// environment mirrors Config with the variable names read at startup.
type environment struct {
	Port            string        `env:"PORT,default=8080"`
	AllowedOrigins  string        `env:"ALLOWED_ORIGINS,default=http://localhost:8080"`
	Environment     string        `env:"APP_ENV,default=development"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	MaxMessageSize  int64         `env:"MAX_MESSAGE_SIZE,default=8192"`
	RateBurst       int           `env:"RATE_LIMIT_BURST,default=5"`
	RateRefill      time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL,default=1s"`
	HTTPRateLimit   int           `env:"HTTP_RATE_LIMIT,default=100"`
	HTTPRateWindow  time.Duration `env:"HTTP_RATE_WINDOW,default=1m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// DefaultConfig returns a Config populated with default values for all settings.
func DefaultConfig() Config {
	return Config{
		Port: ":8080",
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		Environment:    "development",
		LogLevel:       "info",
		MaxMessageSize: 8192,
		RateLimit: RateLimitConfig{
			Burst:          5,
			RefillInterval: time.Second,
		},
		HTTPRateLimit: HTTPRateLimitConfig{
			Requests: 100,
			Window:   time.Minute,
		},
		ShutdownTimeout: 10 * time.Second,
	}
}

// LoadConfig reads an optional .env file and then the process environment.
// Unset variables fall back to defaults.
func LoadConfig(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var e environment
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}

	cfg := Config{
		Port:           e.Port,
		AllowedOrigins: parseOrigins(e.AllowedOrigins),
		Environment:    e.Environment,
		LogLevel:       e.LogLevel,
		MaxMessageSize: e.MaxMessageSize,
		RateLimit: RateLimitConfig{
			Burst:          e.RateBurst,
			RefillInterval: e.RateRefill,
		},
		HTTPRateLimit: HTTPRateLimitConfig{
			Requests: e.HTTPRateLimit,
			Window:   e.HTTPRateWindow,
		},
		ShutdownTimeout: e.ShutdownTimeout,
	}
	return cfg.Sanitize(), nil
}

// Sanitize replaces missing or invalid values with defaults.
func (c Config) Sanitize() Config {
	def := DefaultConfig()

	c.Port = normalizePort(c.Port)
	if c.Port == "" {
		c.Port = def.Port
	}
	if c.Environment == "" {
		c.Environment = def.Environment
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = def.RateLimit.Burst
	}
	if c.RateLimit.RefillInterval <= 0 {
		c.RateLimit.RefillInterval = def.RateLimit.RefillInterval
	}
	if c.HTTPRateLimit.Requests <= 0 {
		c.HTTPRateLimit.Requests = def.HTTPRateLimit.Requests
	}
	if c.HTTPRateLimit.Window <= 0 {
		c.HTTPRateLimit.Window = def.HTTPRateLimit.Window
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = def.ShutdownTimeout
	}
	c.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	return c
}

// IsProduction reports whether the environment label is production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// normalizePort accepts "8080", ":8080" or "host:8080".
func normalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" || strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
