// Package config loads the service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Session stores accepted by SESSION_STORE.
const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type Config struct {
	Model           string
	HTTPPort        string
	MongoURI        string
	MongoDB         string
	SessionStore    string
	SQLitePath      string
	MapsKey         string
	GeocodingURL    string
	MaxIterations   int
	CallTimeout     time.Duration
	RateLimit       int
	LogLevel        slog.Level
	Temperature     float32
	TopP            float32
	MaxOutputTokens int32
}

// Load reads the configuration, applying defaults for unset variables.
func Load() (Config, error) {
	var errs []error

	cfg := Config{
		Model:        getString("MODEL", "gemini-2.0-flash"),
		HTTPPort:     getString("HTTP_PORT", "8080"),
		MongoURI:     getString("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:      getString("MONGODB_DB", "kimap"),
		SessionStore: strings.ToLower(getString("SESSION_STORE", StoreMongo)),
		SQLitePath:   getString("SQLITE_PATH", "kimap_sessions.db"),
		MapsKey:      os.Getenv("MAPS_KEY"),
		GeocodingURL: getString("GEOCODING_URL", "https://maps.googleapis.com"),
	}

	var err error
	if cfg.MaxIterations, err = getInt("MAX_ITERATIONS", 8); err != nil {
		errs = append(errs, err)
	}
	if cfg.RateLimit, err = getInt("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		errs = append(errs, err)
	}
	if cfg.CallTimeout, err = getDuration("CALL_TIMEOUT", 30*time.Second); err != nil {
		errs = append(errs, err)
	}

	temperature, err := getFloat("TEMPERATURE", 0.7)
	errs = append(errs, err)
	topP, err := getFloat("TOP_P", 0.95)
	errs = append(errs, err)
	maxTokens, err := getInt("MAX_OUTPUT_TOKENS", 2048)
	errs = append(errs, err)
	cfg.Temperature, cfg.TopP, cfg.MaxOutputTokens = float32(temperature), float32(topP), int32(maxTokens)

	if err := cfg.LogLevel.UnmarshalText([]byte(getString("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	switch cfg.SessionStore {
	case StoreMongo, StoreSQLite, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE: must be one of %s, %s, %s, got %q", StoreMongo, StoreSQLite, StoreMemory, cfg.SessionStore))
	}

	if cfg.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("MAX_ITERATIONS: must be positive, got %d", cfg.MaxIterations))
	}
	if cfg.RateLimit < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_PER_MINUTE: must be positive, got %d", cfg.RateLimit))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		value = fallback
	}

	return value
}

func getInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	f, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}

	return d, nil
}
