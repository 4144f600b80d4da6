package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	DatabaseURL           string
	HTTPPort              string
	AdminAPIKey           string
	BrapiURL              string
	BrapiToken            string
	BrapiRetryMax         int
	BrapiRetryBaseDelay   time.Duration
	BrapiRateLimit        int
	QuoteCacheTTL         time.Duration
	QuoteStaleThreshold   time.Duration
	QuoteWorkerInterval   time.Duration
	AutosaveDelay         time.Duration
	SheetsSpreadsheetID   string
	GoogleCredentialsJSON string
}

// Load reads configuration from environment variables with sensible defaults.
// Variables from a .env file in the working directory are loaded first, without
// overriding anything already set in the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return Config{
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		HTTPPort:              envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:           os.Getenv("ADMIN_API_KEY"),
		BrapiURL:              envOrDefault("BRAPI_URL", "https://brapi.dev/api"),
		BrapiToken:            envOrDefaultWarn("BRAPI_TOKEN", ""),
		BrapiRetryMax:         envOrDefaultInt("BRAPI_RETRY_MAX", 3),
		BrapiRetryBaseDelay:   envOrDefaultDuration("BRAPI_RETRY_BASE_DELAY", 1*time.Second),
		BrapiRateLimit:        envOrDefaultInt("BRAPI_RATE_LIMIT", 5),
		QuoteCacheTTL:         envOrDefaultDuration("QUOTE_CACHE_TTL", 5*time.Minute),
		QuoteStaleThreshold:   envOrDefaultDuration("QUOTE_STALE_THRESHOLD", 24*time.Hour),
		QuoteWorkerInterval:   envOrDefaultDuration("QUOTE_WORKER_INTERVAL", 1*time.Hour),
		AutosaveDelay:         envOrDefaultDuration("AUTOSAVE_DELAY", 2*time.Second),
		SheetsSpreadsheetID:   os.Getenv("SHEETS_SPREADSHEET_ID"),
		GoogleCredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
