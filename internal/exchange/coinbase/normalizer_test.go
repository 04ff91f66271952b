package coinbase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptofolio/internal/domain"
)

func row(id, typ, amount, currency, native, nativeCurrency string, at time.Time) *domain.CoinbaseTransaction {
	return &domain.CoinbaseTransaction{
		ID:             id,
		AccountID:      "acc-1",
		Type:           typ,
		Status:         "completed",
		Amount:         amount,
		Currency:       currency,
		NativeAmount:   native,
		NativeCurrency: nativeCurrency,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

var baseTime = time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

func TestNormalize_DirectBuy(t *testing.T) {
	n := NewNormalizer("EUR")

	// A buy settled in a currency other than the reference fiat maps
	// directly, with no pairing involved.
	txs, err := n.Normalize([]*domain.CoinbaseTransaction{
		row("b1", domain.CoinbaseTypeBuy, "0.5", "BTC", "15000.00", "USD", baseTime),
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	trade, ok := txs[0].(domain.Trade)
	require.True(t, ok)

	assert.Equal(t, "Coinbase", trade.Application)
	assert.Equal(t, "b1", trade.TxID)
	require.NotNil(t, trade.Source)
	assert.Equal(t, "USD", trade.Source.Asset.Name)
	assert.Equal(t, 15000.0, trade.Source.Amount)
	assert.Equal(t, "BTC", trade.Destination.Asset.Name)
	assert.Equal(t, 0.5, trade.Destination.Amount)
	assert.Equal(t, 15000.0, trade.USDAmount)
}

func TestNormalize_DirectSell(t *testing.T) {
	n := NewNormalizer("EUR")

	txs, err := n.Normalize([]*domain.CoinbaseTransaction{
		row("s1", domain.CoinbaseTypeSell, "-0.5", "BTC", "-16000.00", "USD", baseTime),
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	trade := txs[0].(domain.Trade)
	require.NotNil(t, trade.Source)
	assert.Equal(t, "BTC", trade.Source.Asset.Name)
	assert.Equal(t, 0.5, trade.Source.Amount)
	assert.Equal(t, "USD", trade.Destination.Asset.Name)
	assert.Equal(t, 16000.0, trade.Destination.Amount)
}

func TestNormalize_ReferenceFiatBuySkipped(t *testing.T) {
	n := NewNormalizer("EUR")

	// The EUR-settled buy is the fiat shadow of a conversion already
	// captured by its paired trade rows.
	txs, err := n.Normalize([]*domain.CoinbaseTransaction{
		row("b2", domain.CoinbaseTypeBuy, "0.5", "BTC", "14000.00", "EUR", baseTime),
	})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestNormalize_EarnPayout(t *testing.T) {
	n := NewNormalizer("EUR")

	txs, err := n.Normalize([]*domain.CoinbaseTransaction{
		row("e1", domain.CoinbaseTypeEarnPayout, "1.25", "ADA", "0.42", "EUR", baseTime),
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	trade := txs[0].(domain.Trade)
	assert.Nil(t, trade.Source, "staking reward has no source leg")
	assert.Equal(t, "ADA", trade.Destination.Asset.Name)
	assert.Equal(t, 1.25, trade.Destination.Amount)
	assert.Equal(t, 0.42, trade.USDAmount)
}

func TestNormalize_TransfersSkipped(t *testing.T) {
	n := NewNormalizer("EUR")

	txs, err := n.Normalize([]*domain.CoinbaseTransaction{
		row("t1", domain.CoinbaseTypeSend, "-0.1", "BTC", "-3000.00", "EUR", baseTime),
		row("t2", domain.CoinbaseTypeFiatDeposit, "500.00", "EUR", "500.00", "EUR", baseTime),
	})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestNormalize_PairedTrade(t *testing.T) {
	n := NewNormalizer("EUR")

	later := baseTime.Add(2 * time.Second)
	txs, err := n.Normalize([]*domain.CoinbaseTransaction{
		row("out-1", domain.CoinbaseTypeTrade, "-0.5", "BTC", "-15000.00", "EUR", baseTime),
		row("in-1", domain.CoinbaseTypeTrade, "10.0", "ETH", "14950.00", "EUR", later),
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	trade := txs[0].(domain.Trade)

	// The pair becomes one trade identified by its outgoing row and
	// stamped with the later leg's time.
	assert.Equal(t, "out-1", trade.TxID)
	assert.Equal(t, later, trade.Timestamp)

	require.NotNil(t, trade.Source)
	assert.Equal(t, "BTC", trade.Source.Asset.Name)
	assert.Equal(t, 0.5, trade.Source.Amount)
	assert.Equal(t, "ETH", trade.Destination.Asset.Name)
	assert.Equal(t, 10.0, trade.Destination.Amount)

	// Commission is the fiat gap between the legs.
	require.NotNil(t, trade.Commission)
	assert.InDelta(t, 50.0, trade.Commission.Amount.Amount, 1e-9)
	assert.Equal(t, "EUR", trade.Commission.Amount.Asset.Name)

	assert.Equal(t, 15000.0, trade.USDAmount)
}

func TestNormalize_PairedTradeEqualFiatHasNoCommission(t *testing.T) {
	n := NewNormalizer("EUR")

	txs, err := n.Normalize([]*domain.CoinbaseTransaction{
		row("out-2", domain.CoinbaseTypeTrade, "-100", "KAS", "-10.00", "EUR", baseTime),
		row("in-2", domain.CoinbaseTypeTrade, "0.003", "ETH", "10.00", "EUR", baseTime),
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	trade := txs[0].(domain.Trade)
	assert.Nil(t, trade.Commission)
}

func TestNormalize_PairedTradeNegativeSpreadHasNoCommission(t *testing.T) {
	n := NewNormalizer("EUR")

	// The incoming leg can be valued above the outgoing one when the
	// price moves between the two rows; that spread is not a fee.
	txs, err := n.Normalize([]*domain.CoinbaseTransaction{
		row("out-8", domain.CoinbaseTypeTrade, "-0.5", "BTC", "-15000.00", "EUR", baseTime),
		row("in-8", domain.CoinbaseTypeTrade, "10.0", "ETH", "15020.00", "EUR", baseTime.Add(time.Second)),
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	trade := txs[0].(domain.Trade)
	assert.Nil(t, trade.Commission)
	assert.Equal(t, 15000.0, trade.USDAmount)
}

func TestNormalize_IncomingLegFirst(t *testing.T) {
	n := NewNormalizer("EUR")

	// Leg order within a pair is not guaranteed by the API.
	txs, err := n.Normalize([]*domain.CoinbaseTransaction{
		row("in-3", domain.CoinbaseTypeTrade, "10.0", "ETH", "14950.00", "EUR", baseTime),
		row("out-3", domain.CoinbaseTypeTrade, "-0.5", "BTC", "-15000.00", "EUR", baseTime.Add(time.Second)),
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	trade := txs[0].(domain.Trade)
	assert.Equal(t, "out-3", trade.TxID)
	assert.Equal(t, "BTC", trade.Source.Asset.Name)
	assert.Equal(t, "ETH", trade.Destination.Asset.Name)
}

func TestNormalize_SlotOverwriteIsError(t *testing.T) {
	n := NewNormalizer("EUR")

	// Two outgoing legs in a row mean a lost pair somewhere; refusing
	// beats silently discarding the first leg.
	_, err := n.Normalize([]*domain.CoinbaseTransaction{
		row("out-4", domain.CoinbaseTypeTrade, "-0.5", "BTC", "-15000.00", "EUR", baseTime),
		row("out-5", domain.CoinbaseTypeTrade, "-1.0", "ETH", "-1500.00", "EUR", baseTime.Add(time.Second)),
	})
	require.Error(t, err)

	var pairingErr *PairingError
	require.ErrorAs(t, err, &pairingErr)
	assert.Equal(t, "out-5", pairingErr.TxID)
}

func TestNormalize_UnpairedLegAtEndIsError(t *testing.T) {
	n := NewNormalizer("EUR")

	_, err := n.Normalize([]*domain.CoinbaseTransaction{
		row("out-6", domain.CoinbaseTypeTrade, "-0.5", "BTC", "-15000.00", "EUR", baseTime),
	})
	require.Error(t, err)

	var pairingErr *PairingError
	require.ErrorAs(t, err, &pairingErr)
	assert.Equal(t, "out-6", pairingErr.TxID)
}

func TestNormalize_UnknownTypeIsError(t *testing.T) {
	n := NewNormalizer("EUR")

	_, err := n.Normalize([]*domain.CoinbaseTransaction{
		row("x1", "staking_unstake", "1", "ETH", "3000", "EUR", baseTime),
	})
	require.Error(t, err)

	var typeErr *UnimplementedTransactionTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "staking_unstake", typeErr.Type)
}

func TestNormalize_TradeLegInForeignFiatIsError(t *testing.T) {
	n := NewNormalizer("EUR")

	_, err := n.Normalize([]*domain.CoinbaseTransaction{
		row("out-7", domain.CoinbaseTypeTrade, "-0.5", "BTC", "-15000.00", "USD", baseTime),
	})
	require.Error(t, err)

	var currencyErr *UnimplementedCurrencyError
	require.ErrorAs(t, err, &currencyErr)
	assert.Equal(t, "USD", currencyErr.Currency)
	assert.Equal(t, "EUR", currencyErr.Expected)
}

func TestNormalize_BadNumericField(t *testing.T) {
	n := NewNormalizer("EUR")

	_, err := n.Normalize([]*domain.CoinbaseTransaction{
		row("b3", domain.CoinbaseTypeBuy, "not-a-number", "BTC", "100", "USD", baseTime),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction b3")
}
