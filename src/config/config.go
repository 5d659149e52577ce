package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string

	PlaidClientID     string
	PlaidSecret       string
	PlaidEnv          string
	PlaidProducts     []string
	PlaidCountryCodes []string
	PlaidClientName   string
	PlaidLanguage     string
	PlaidWebhookURL   string

	TransactionsLookbackDays int
	CacheTTL                 time.Duration
	AllowedOrigins           []string

	LogLevel  string
	LogFormat string
}

func Load() (Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Config{
		Port:              getEnv("PORT", "8000"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		PlaidClientID:     getEnv("PLAID_CLIENT_ID", ""),
		PlaidSecret:       getEnv("PLAID_SECRET", ""),
		PlaidEnv:          strings.ToLower(getEnv("PLAID_ENV", "sandbox")),
		PlaidProducts:     splitCSV(getEnv("PLAID_PRODUCTS", "auth,transactions")),
		PlaidCountryCodes: splitCSV(getEnv("PLAID_COUNTRY_CODES", "US")),
		PlaidClientName:   getEnv("PLAID_CLIENT_NAME", "Finance Tracker"),
		PlaidLanguage:     getEnv("PLAID_CLIENT_LANG", "en"),
		PlaidWebhookURL:   getEnv("PLAID_WEBHOOK_URL", ""),
		AllowedOrigins:    splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
	}

	if cfg.PlaidClientID == "" || cfg.PlaidSecret == "" {
		return Config{}, fmt.Errorf("PLAID_CLIENT_ID and PLAID_SECRET are required")
	}
	if cfg.PlaidEnv != "sandbox" && cfg.PlaidEnv != "production" {
		return Config{}, fmt.Errorf("invalid PLAID_ENV %q", cfg.PlaidEnv)
	}

	days, err := strconv.Atoi(getEnv("TRANSACTIONS_LOOKBACK_DAYS", "730"))
	if err != nil || days <= 0 {
		return Config{}, fmt.Errorf("invalid TRANSACTIONS_LOOKBACK_DAYS: %q", os.Getenv("TRANSACTIONS_LOOKBACK_DAYS"))
	}
	cfg.TransactionsLookbackDays = days

	ttl, err := time.ParseDuration(getEnv("CACHE_TTL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = ttl

	return cfg, nil
}

// Sandbox reports whether sandbox-only routes may be exposed.
func (c Config) Sandbox() bool {
	return c.PlaidEnv == "sandbox"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
