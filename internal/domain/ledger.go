package domain

import "time"

// TradeType is the direction of a ledger row.
type TradeType string

// Ledger row directions. Serialized verbatim into the CSV type column.
const (
	TradeTypeBuy  TradeType = "Buy"
	TradeTypeSell TradeType = "Sell"
)

// LedgerRow is one flat, fiat-referenced line of the export ledger.
// A canonical Trade projects to one or two rows depending on which side
// carries the fiat reference. Corresponds to ledger_rows table in
// ClickHouse when the analytics mirror is enabled.
type LedgerRow struct {
	Application      string
	TxID             string
	Currency         string // fiat reference, e.g. "USD" or "EUR"
	Account          string
	Asset            string
	Ticker           string
	Type             TradeType
	CryptoAmount     float64
	FiatAmount       float64
	CommissionAmount float64
	Note             string
	Timestamp        time.Time // UTC; date and time-of-day split at serialization
}
