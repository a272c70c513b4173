package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-solar-forecast/internal/logger"
)

type AppConfig struct {
	// GoogleMapsAPIKey enables the paid Google Maps geocoding provider
	// when set. All free providers work without keys.
	GoogleMapsAPIKey string

	// HTTPTimeout bounds every outbound weather/geocoding call.
	HTTPTimeout time.Duration

	// ProbeInterval controls how often upstream reachability is checked
	// for the health endpoint.
	ProbeInterval time.Duration

	// AutocompleteLimit caps the number of suggestions returned.
	AutocompleteLimit int

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logger.Infof("no .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.GoogleMapsAPIKey = os.Getenv("GOOGLE_MAPS_API_KEY")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	probeStr := getenvDefault("PROBE_INTERVAL", "5m")
	probeInterval, err := time.ParseDuration(probeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PROBE_INTERVAL: %w", err)
	}
	cfg.ProbeInterval = probeInterval

	cfg.AutocompleteLimit = getenvInt("AUTOCOMPLETE_LIMIT", 8)
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
