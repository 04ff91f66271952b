package domain

import "time"

// Coinbase transaction types that have a defined handling. Any type
// outside this set is an unimplemented-type error at normalization time,
// never a silent skip.
const (
	CoinbaseTypeBuy         = "buy"
	CoinbaseTypeSell        = "sell"
	CoinbaseTypeTrade       = "trade"
	CoinbaseTypeEarnPayout  = "earn_payout"
	CoinbaseTypeSend        = "send"
	CoinbaseTypeFiatDeposit = "fiat_deposit"
)

// CoinbaseTransaction is one raw row from the Coinbase v2 account
// transactions endpoint. Corresponds to coinbase_transactions table in
// PostgreSQL. Amount fields are the signed decimal strings the API
// returns.
type CoinbaseTransaction struct {
	ID             string // PRIMARY KEY, exchange-native transaction id
	AccountID      string
	Type           string // e.g. "buy", "trade", "earn_payout"
	Status         string
	Amount         string // signed crypto amount
	Currency       string // crypto asset ticker
	NativeAmount   string // signed fiat-equivalent amount
	NativeCurrency string // account's native fiat, e.g. "EUR"
	CreatedAt      time.Time
	UpdatedAt      time.Time
	StoredAt       int64 // record creation timestamp (ms)
}
