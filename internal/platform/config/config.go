// Package config loads deployment configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// StorageBackend selects the trip gateway: "memory" or "postgres".
	StorageBackend string
	DatabaseURL    string

	// CacheBackend selects the route cache: "memory" or "redis".
	CacheBackend string
	RedisURL     string

	OSRMBaseURL      string
	NominatimBaseURL string
	RouteProfile     string

	RouteDebounce  time.Duration
	SearchDebounce time.Duration

	LogLevel  string
	LogFormat string
}

// LoadFromEnv reads configuration, merging a local .env file if present.
// Reasonable defaults make local/dev/test behavior predictable.
func LoadFromEnv() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:             getenv("PORT", "8080"),
		StorageBackend:   getenv("STORAGE_BACKEND", "memory"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		CacheBackend:     getenv("CACHE_BACKEND", "memory"),
		RedisURL:         os.Getenv("REDIS_URL"),
		OSRMBaseURL:      getenv("OSRM_BASE_URL", "https://router.project-osrm.org"),
		NominatimBaseURL: getenv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		RouteProfile:     getenv("ROUTE_PROFILE", "driving"),
		RouteDebounce:    250 * time.Millisecond,
		SearchDebounce:   250 * time.Millisecond,
		LogLevel:         getenv("LOG_LEVEL", "info"),
		LogFormat:        getenv("LOG_FORMAT", "text"),
	}

	switch cfg.StorageBackend {
	case "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", cfg.StorageBackend)
	}

	switch cfg.CacheBackend {
	case "memory":
	case "redis":
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL is required when CACHE_BACKEND=redis")
		}
	default:
		return Config{}, fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", cfg.CacheBackend)
	}

	if v := os.Getenv("ROUTE_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("ROUTE_DEBOUNCE must be a duration (e.g. 250ms): %w", err)
		}
		cfg.RouteDebounce = d
	}
	if v := os.Getenv("SEARCH_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("SEARCH_DEBOUNCE must be a duration (e.g. 250ms): %w", err)
		}
		cfg.SearchDebounce = d
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
