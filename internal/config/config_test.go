package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

var keys = []string{
	"MODEL", "HTTP_PORT", "MONGODB_URI", "MONGODB_DB", "SESSION_STORE", "SQLITE_PATH",
	"MAPS_KEY", "GEOCODING_URL", "MAX_ITERATIONS", "CALL_TIMEOUT", "RATE_LIMIT_PER_MINUTE",
	"LOG_LEVEL", "TEMPERATURE", "TOP_P", "MAX_OUTPUT_TOKENS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Config{
		Model:           "gemini-2.0-flash",
		HTTPPort:        "8080",
		MongoURI:        "mongodb://localhost:27017",
		MongoDB:         "kimap",
		SessionStore:    StoreMongo,
		SQLitePath:      "kimap_sessions.db",
		GeocodingURL:    "https://maps.googleapis.com",
		MaxIterations:   8,
		CallTimeout:     30 * time.Second,
		RateLimit:       60,
		LogLevel:        slog.LevelInfo,
		Temperature:     0.7,
		TopP:            0.95,
		MaxOutputTokens: 2048,
	}
	if cfg != want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL", "gemini-2.5-flash")
	t.Setenv("SESSION_STORE", "SQLite")
	t.Setenv("MAPS_KEY", "secret")
	t.Setenv("MAX_ITERATIONS", "4")
	t.Setenv("CALL_TIMEOUT", "5s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TEMPERATURE", "0.2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Model != "gemini-2.5-flash" || cfg.SessionStore != StoreSQLite || cfg.MapsKey != "secret" {
		t.Errorf("strings not applied: %+v", cfg)
	}
	if cfg.MaxIterations != 4 || cfg.CallTimeout != 5*time.Second {
		t.Errorf("numbers not applied: %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.Temperature != 0.2 {
		t.Errorf("Temperature = %v, want 0.2", cfg.Temperature)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "Store", key: "SESSION_STORE", val: "redis"},
		{name: "Iterations", key: "MAX_ITERATIONS", val: "many"},
		{name: "Zero iterations", key: "MAX_ITERATIONS", val: "0"},
		{name: "Timeout", key: "CALL_TIMEOUT", val: "30"},
		{name: "Rate", key: "RATE_LIMIT_PER_MINUTE", val: "-1"},
		{name: "Level", key: "LOG_LEVEL", val: "loud"},
		{name: "Temperature", key: "TEMPERATURE", val: "hot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			if err == nil {
				t.Fatalf("Load() with %s=%q succeeded", tt.key, tt.val)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name %s", err, tt.key)
			}
		})
	}
}
