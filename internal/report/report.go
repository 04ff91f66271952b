package report

import (
	"sort"
	"time"

	"cryptofolio/internal/domain"
)

// Report is the displayable view of a merged transaction history.
type Report struct {
	GeneratedAt time.Time

	TradeCount   int
	AirdropCount int
	BridgeCount  int

	// DateRange covers the oldest and newest transaction; zero when the
	// history is empty.
	DateRangeStart time.Time
	DateRangeEnd   time.Time

	// Transactions in time order.
	Transactions []TransactionRow

	// Positions per asset, sorted by asset name.
	Positions []PositionRow
}

// TransactionRow is one line of the transaction table.
type TransactionRow struct {
	At          time.Time
	Kind        domain.Kind
	Application string
	TxID        string
	Detail      string
	USDAmount   float64
}

// PositionRow is the net balance of one asset across the whole history.
type PositionRow struct {
	Asset   string
	Balance float64
}

// Build assembles a Report from merged transactions. The clock is passed
// in so rendering is reproducible.
func Build(txs []domain.Transaction, now time.Time) *Report {
	r := &Report{GeneratedAt: now}
	balances := map[string]float64{}

	for _, tx := range txs {
		if r.DateRangeStart.IsZero() || tx.Time().Before(r.DateRangeStart) {
			r.DateRangeStart = tx.Time()
		}
		if tx.Time().After(r.DateRangeEnd) {
			r.DateRangeEnd = tx.Time()
		}

		switch v := tx.(type) {
		case domain.Trade:
			r.TradeCount++
			balances[v.Destination.Asset.Name] += v.Destination.Amount
			if v.Source != nil {
				balances[v.Source.Asset.Name] -= v.Source.Amount
			}
			if v.Commission != nil {
				balances[v.Commission.Amount.Asset.Name] -= v.Commission.Amount.Amount
			}
			r.Transactions = append(r.Transactions, TransactionRow{
				At:          v.Timestamp,
				Kind:        domain.KindTrade,
				Application: v.Application,
				TxID:        v.TxID,
				Detail:      tradeDetail(v),
				USDAmount:   v.USDAmount,
			})

		case domain.Airdrop:
			r.AirdropCount++
			balances[v.Amount.Asset.Name] += v.Amount.Amount
			r.Transactions = append(r.Transactions, TransactionRow{
				At:        v.Timestamp,
				Kind:      domain.KindAirdrop,
				TxID:      v.TxID,
				Detail:    formatAmount(v.Amount) + " (" + v.Note + ")",
				USDAmount: v.USDAmount,
			})

		case domain.Bridge:
			// Bridges move holdings between locations; the net balance
			// is unchanged.
			r.BridgeCount++
			r.Transactions = append(r.Transactions, TransactionRow{
				At:          v.Timestamp,
				Kind:        domain.KindBridge,
				Application: v.Application,
				TxID:        v.TxID,
				Detail:      formatAmount(v.Amount) + " " + v.Source.Location() + " to " + v.Destination.Location(),
			})
		}
	}

	for asset, balance := range balances {
		r.Positions = append(r.Positions, PositionRow{Asset: asset, Balance: balance})
	}
	sort.Slice(r.Positions, func(i, j int) bool {
		return r.Positions[i].Asset < r.Positions[j].Asset
	})

	return r
}

// tradeDetail renders the two legs of a trade.
func tradeDetail(t domain.Trade) string {
	if t.Source == nil {
		return "reward " + formatAmount(t.Destination)
	}
	return formatAmount(*t.Source) + " to " + formatAmount(t.Destination)
}
