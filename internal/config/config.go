// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// MEXC
	MexcAccessKey  string
	MexcSecretKey  string
	MexcSymbols    []string // trading pairs to fetch, e.g. ETHUSDT
	MexcQuoteAsset string   // quote suffix all symbols must carry

	// Coinbase
	CoinbaseAPIKey    string
	CoinbaseAPISecret string
	CoinbaseFiat      string // reference fiat of the Coinbase account

	// Export
	ExportFiat string // fiat reference of the ledger projection

	// Storage
	PostgresDSN   string
	ClickhouseDSN string // optional analytics mirror, empty disables it

	LogLevel string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		MexcAccessKey:  getEnv("MEXC_ACCESS_KEY", ""),
		MexcSecretKey:  getEnv("MEXC_SECRET_KEY", ""),
		MexcSymbols:    getEnvAsList("MEXC_SYMBOLS", nil),
		MexcQuoteAsset: getEnv("MEXC_QUOTE_ASSET", "USDT"),

		CoinbaseAPIKey:    getEnv("COINBASE_API_KEY", ""),
		CoinbaseAPISecret: getEnv("COINBASE_API_SECRET", ""),
		CoinbaseFiat:      getEnv("COINBASE_FIAT", "EUR"),

		ExportFiat: getEnv("EXPORT_FIAT", "USD"),

		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		ClickhouseDSN: getEnv("CLICKHOUSE_DSN", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}

	return cfg, nil
}

// getEnv reads an environment variable with a default fallback.
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// getEnvAsList reads a comma-separated environment variable.
func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
