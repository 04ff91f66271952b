package domain

import "time"

// Kind discriminates canonical transaction variants.
type Kind string

// Transaction kinds.
const (
	KindTrade   Kind = "trade"
	KindAirdrop Kind = "airdrop"
	KindBridge  Kind = "bridge"
)

// Transaction is the canonical representation of one portfolio event,
// derived from raw exchange rows. Transactions are recomputed from raw
// storage on every read and are never mutated after construction.
type Transaction interface {
	Kind() Kind
	ID() string
	Time() time.Time
}

// Trade is an exchange of one asset for another.
// Source is the asset given up, Destination the asset received; both are
// unsigned. Source is nil for free acquisitions (e.g. staking payouts).
// USDAmount is the fiat-equivalent value of the whole trade including
// commission.
type Trade struct {
	Application string
	TxID        string
	Source      *Amount
	Destination Amount
	Commission  *Commission
	USDAmount   float64
	Timestamp   time.Time
}

func (t Trade) Kind() Kind      { return KindTrade }
func (t Trade) ID() string      { return t.TxID }
func (t Trade) Time() time.Time { return t.Timestamp }

// Airdrop is a zero-cost acquisition of an asset.
type Airdrop struct {
	TxID      string
	Amount    Amount
	USDAmount float64
	Timestamp time.Time
	Note      string
}

func (a Airdrop) Kind() Kind      { return KindAirdrop }
func (a Airdrop) ID() string      { return a.TxID }
func (a Airdrop) Time() time.Time { return a.Timestamp }

// Bridge is a cross-network transfer of an asset between two value stores.
// It has no export mapping yet; the projector must reject it rather than
// drop it, since dropping would silently under-report holdings.
type Bridge struct {
	Application string
	TxID        string
	Source      ValueStore
	Destination ValueStore
	Amount      Amount
	Commission  *Commission
	Timestamp   time.Time
}

func (b Bridge) Kind() Kind      { return KindBridge }
func (b Bridge) ID() string      { return b.TxID }
func (b Bridge) Time() time.Time { return b.Timestamp }
