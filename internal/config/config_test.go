package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/cryptofolio")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "USDT", cfg.MexcQuoteAsset)
	assert.Equal(t, "EUR", cfg.CoinbaseFiat)
	assert.Equal(t, "USD", cfg.ExportFiat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.ClickhouseDSN)
}

func TestLoad_RequiresPostgresDSN(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_DSN")
}

func TestLoad_SymbolList(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/cryptofolio")
	t.Setenv("MEXC_SYMBOLS", "ETHUSDT, KASUSDT ,BNBUSDT,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"ETHUSDT", "KASUSDT", "BNBUSDT"}, cfg.MexcSymbols)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/cryptofolio")
	t.Setenv("MEXC_QUOTE_ASSET", "USDC")
	t.Setenv("EXPORT_FIAT", "EUR")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "USDC", cfg.MexcQuoteAsset)
	assert.Equal(t, "EUR", cfg.ExportFiat)
	assert.Equal(t, "debug", cfg.LogLevel)
}
