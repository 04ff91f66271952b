package domain

// MexcFill is one raw fill row from the MEXC myTrades endpoint.
// Corresponds to mexc_fills table in PostgreSQL. Numeric fields are kept
// as the decimal strings the API returns; parsing happens at
// normalization time so stored rows stay byte-faithful to the source.
type MexcFill struct {
	ID              string // PRIMARY KEY, exchange-native fill id
	Symbol          string // trading pair, e.g. "ETHUSDT"
	OrderID         string
	OrderListID     int64
	Price           string
	Qty             string // base asset quantity
	QuoteQty        string // quote asset notional
	Commission      string
	CommissionAsset string
	Time            int64 // Unix timestamp in milliseconds
	IsBuyer         bool
	IsMaker         bool
	IsBestMatch     bool
	IsSelfTrade     bool
	ClientOrderID   *string // nullable
	CreatedAt       int64   // record creation timestamp (ms)
}
