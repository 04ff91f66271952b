package mexc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptofolio/internal/domain"
)

func fill(id, symbol, qty, quoteQty, commission, commissionAsset string, isBuyer bool) *domain.MexcFill {
	return &domain.MexcFill{
		ID:              id,
		Symbol:          symbol,
		OrderID:         "order-" + id,
		Price:           "0",
		Qty:             qty,
		QuoteQty:        quoteQty,
		Commission:      commission,
		CommissionAsset: commissionAsset,
		Time:            1700000001000,
		IsBuyer:         isBuyer,
	}
}

func TestNormalize_BuyFill(t *testing.T) {
	n := NewNormalizer("USDT")

	txs, err := n.Normalize([]*domain.MexcFill{
		fill("1", "ETHUSDT", "1.0", "3000.0", "3.0", "USDT", true),
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	trade, ok := txs[0].(domain.Trade)
	require.True(t, ok)

	assert.Equal(t, "MEXC", trade.Application)
	assert.Equal(t, "1", trade.TxID)

	// Buyer gives up the quote leg and receives the crypto leg.
	require.NotNil(t, trade.Source)
	assert.Equal(t, "USDT", trade.Source.Asset.Name)
	assert.Equal(t, 3000.0, trade.Source.Amount)
	assert.Equal(t, "ETH", trade.Destination.Asset.Name)
	assert.Equal(t, 1.0, trade.Destination.Amount)

	require.NotNil(t, trade.Commission)
	assert.Equal(t, 3.0, trade.Commission.Amount.Amount)
	assert.Equal(t, "USDT", trade.Commission.Amount.Asset.Name)
	assert.Equal(t, 3.0, trade.Commission.USDAmount)

	assert.Equal(t, 3000.0, trade.USDAmount)
	assert.Equal(t, time.UnixMilli(1700000001000).UTC(), trade.Timestamp)
}

func TestNormalize_SellFill(t *testing.T) {
	n := NewNormalizer("USDT")

	txs, err := n.Normalize([]*domain.MexcFill{
		fill("2", "KASUSDT", "500", "55.0", "0.055", "USDT", false),
	})
	require.NoError(t, err)
	require.Len(t, txs, 1)

	trade := txs[0].(domain.Trade)

	// Seller gives up the crypto leg; the quote leg lands in the
	// fiat-reference position for projection.
	require.NotNil(t, trade.Source)
	assert.Equal(t, "KAS", trade.Source.Asset.Name)
	assert.Equal(t, 500.0, trade.Source.Amount)
	assert.Equal(t, "USDT", trade.Destination.Asset.Name)
	assert.Equal(t, 55.0, trade.Destination.Amount)
	assert.Equal(t, 55.0, trade.USDAmount)
}

func TestNormalize_ZeroCommission(t *testing.T) {
	n := NewNormalizer("USDT")

	for _, commission := range []string{"0", "0.0", "0.00000000"} {
		txs, err := n.Normalize([]*domain.MexcFill{
			fill("3", "BNBUSDT", "2", "1200", commission, "", true),
		})
		require.NoError(t, err)

		trade := txs[0].(domain.Trade)
		assert.Nil(t, trade.Commission, "commission %q should map to nil", commission)
	}
}

func TestNormalize_UnsupportedSymbol(t *testing.T) {
	n := NewNormalizer("USDT")

	_, err := n.Normalize([]*domain.MexcFill{
		fill("4", "FOOBAR", "1", "1", "0", "", true),
	})
	require.Error(t, err)

	var unsupported *UnsupportedSymbolError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "FOOBAR", unsupported.Symbol)
}

func TestNormalize_SymbolEqualToSuffix(t *testing.T) {
	n := NewNormalizer("USDT")

	// A bare "USDT" symbol has an empty base asset and is not a
	// supported pair either.
	_, err := n.Normalize([]*domain.MexcFill{
		fill("5", "USDT", "1", "1", "0", "", true),
	})

	var unsupported *UnsupportedSymbolError
	require.ErrorAs(t, err, &unsupported)
}

func TestNormalize_SkipUnsupported(t *testing.T) {
	n := NewNormalizer("USDT", WithSkipUnsupported())

	txs, err := n.Normalize([]*domain.MexcFill{
		fill("6", "FOOBAR", "1", "1", "0", "", true),
		fill("7", "ETHUSDT", "1.0", "3000.0", "0", "", true),
	})
	require.NoError(t, err)

	// The unsupported row is skipped, not silently misclassified.
	require.Len(t, txs, 1)
	assert.Equal(t, "7", txs[0].ID())
}

func TestNormalize_ConfigurableQuoteSuffix(t *testing.T) {
	n := NewNormalizer("USDC")

	txs, err := n.Normalize([]*domain.MexcFill{
		fill("8", "ETHUSDC", "1.0", "2990.0", "0", "", false),
	})
	require.NoError(t, err)

	trade := txs[0].(domain.Trade)
	assert.Equal(t, "ETH", trade.Source.Asset.Name)
	assert.Equal(t, "USDC", trade.Destination.Asset.Name)
}

func TestNormalize_BadNumericField(t *testing.T) {
	n := NewNormalizer("USDT")

	_, err := n.Normalize([]*domain.MexcFill{
		fill("9", "ETHUSDT", "not-a-number", "3000.0", "0", "", true),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fill 9")
}
