package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Clear any env vars that might affect defaults
	for _, key := range []string{"BRAPI_URL", "DATABASE_URL", "HTTP_PORT", "BRAPI_RETRY_MAX", "BRAPI_RATE_LIMIT", "AUTOSAVE_DELAY", "QUOTE_CACHE_TTL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.BrapiURL != "https://brapi.dev/api" {
		t.Errorf("BrapiURL = %q, want default", cfg.BrapiURL)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.BrapiRetryMax != 3 {
		t.Errorf("BrapiRetryMax = %d, want 3", cfg.BrapiRetryMax)
	}
	if cfg.BrapiRateLimit != 5 {
		t.Errorf("BrapiRateLimit = %d, want 5", cfg.BrapiRateLimit)
	}
	if cfg.AutosaveDelay != 2*time.Second {
		t.Errorf("AutosaveDelay = %v, want 2s", cfg.AutosaveDelay)
	}
	if cfg.QuoteCacheTTL != 5*time.Minute {
		t.Errorf("QuoteCacheTTL = %v, want 5m", cfg.QuoteCacheTTL)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BRAPI_URL", "https://quotes.example.com")
	t.Setenv("DATABASE_URL", "postgres://localhost/testdb")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("BRAPI_RETRY_MAX", "10")
	t.Setenv("BRAPI_RETRY_BASE_DELAY", "5s")
	t.Setenv("AUTOSAVE_DELAY", "500ms")

	cfg := Load()

	if cfg.BrapiURL != "https://quotes.example.com" {
		t.Errorf("BrapiURL = %q, want override", cfg.BrapiURL)
	}
	if cfg.DatabaseURL != "postgres://localhost/testdb" {
		t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q, want 9090", cfg.HTTPPort)
	}
	if cfg.BrapiRetryMax != 10 {
		t.Errorf("BrapiRetryMax = %d, want 10", cfg.BrapiRetryMax)
	}
	if cfg.BrapiRetryBaseDelay != 5*time.Second {
		t.Errorf("BrapiRetryBaseDelay = %v, want 5s", cfg.BrapiRetryBaseDelay)
	}
	if cfg.AutosaveDelay != 500*time.Millisecond {
		t.Errorf("AutosaveDelay = %v, want 500ms", cfg.AutosaveDelay)
	}
}

func TestLoadInvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("BRAPI_RETRY_MAX", "not-a-number")
	t.Setenv("BRAPI_RETRY_BASE_DELAY", "invalid-duration")

	cfg := Load()

	if cfg.BrapiRetryMax != 3 {
		t.Errorf("BrapiRetryMax = %d, want default 3 on invalid input", cfg.BrapiRetryMax)
	}
	if cfg.BrapiRetryBaseDelay != 1*time.Second {
		t.Errorf("BrapiRetryBaseDelay = %v, want default 1s on invalid input", cfg.BrapiRetryBaseDelay)
	}
}
