package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings. It is built once at startup and
// treated as read-only afterwards.
type Config struct {
	// Server
	Port      string
	StaticDir string
	Env       string

	// Fallbacks for fields omitted from an evolve request
	Defaults Defaults

	// Outbound chat-completion calls. Zero means no client-side timeout.
	UpstreamTimeout time.Duration
}

// Defaults are substituted for empty apiUrl/apiKey/model request fields.
type Defaults struct {
	APIURL string
	APIKey string
	Model  string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:      getEnv("PORT", "3000"),
		StaticDir: getEnv("STATIC_DIR", "public"),
		Env:       getEnv("APP_ENV", "development"),
		Defaults: Defaults{
			APIURL: strings.TrimSpace(os.Getenv("DEFAULT_API_URL")),
			APIKey: strings.TrimSpace(os.Getenv("DEFAULT_API_KEY")),
			Model:  strings.TrimSpace(os.Getenv("DEFAULT_MODEL")),
		},
	}

	if raw := strings.TrimSpace(os.Getenv("UPSTREAM_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT %q: %w", raw, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("UPSTREAM_TIMEOUT must not be negative, got %s", d)
		}
		cfg.UpstreamTimeout = d
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
