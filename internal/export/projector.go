package export

import (
	"fmt"
	"math"

	"cryptofolio/internal/domain"
)

// ErrBridgeNotImplemented marks a bridge transaction reaching the
// projector. Bridges have no ledger mapping yet and must stop the export;
// dropping them would under-report holdings.
var ErrBridgeNotImplemented = fmt.Errorf("bridge transactions have no ledger projection")

// nominalFiatAmount is the placeholder cost of a free acquisition.
// Downstream accounting tools reject zero-cost buys as input errors.
const nominalFiatAmount = 0.01

// Projector flattens canonical transactions into fiat-referenced ledger
// rows. A trade with a fiat leg becomes one row; a crypto-to-crypto trade
// becomes a sell and a buy sharing the trade's fiat notional.
type Projector struct {
	fiatReference string
	fiatSet       map[string]bool
}

// NewProjector creates a Projector referencing the given fiat currency
// (e.g. "USD"). Additional fiat-pegged tickers (e.g. a stablecoin quote
// asset like "USDT") are treated as fiat legs too; without them every
// stablecoin-quoted trade would be misread as crypto-to-crypto and split
// in two.
func NewProjector(fiatReference string, fiatEquivalents ...string) *Projector {
	fiatSet := map[string]bool{fiatReference: true}
	for _, ticker := range fiatEquivalents {
		fiatSet[ticker] = true
	}
	return &Projector{fiatReference: fiatReference, fiatSet: fiatSet}
}

// Project maps transactions, preserving order, into ledger rows.
func (p *Projector) Project(txs []domain.Transaction) ([]*domain.LedgerRow, error) {
	rows := make([]*domain.LedgerRow, 0, len(txs))

	for _, tx := range txs {
		switch v := tx.(type) {
		case domain.Trade:
			rows = append(rows, p.projectTrade(v)...)
		case domain.Airdrop:
			rows = append(rows, p.projectAirdrop(v))
		case domain.Bridge:
			return nil, fmt.Errorf("project transaction %s: %w", v.TxID, ErrBridgeNotImplemented)
		default:
			return nil, fmt.Errorf("project transaction %s: unknown kind %q", tx.ID(), tx.Kind())
		}
	}

	return rows, nil
}

// projectTrade applies the currency-split decision table.
func (p *Projector) projectTrade(trade domain.Trade) []*domain.LedgerRow {
	switch {
	case trade.Source == nil:
		// Free acquisition: nothing was given up.
		return []*domain.LedgerRow{p.row(trade, domain.TradeTypeBuy, p.fiatReference,
			trade.Destination, nominalFiatAmount, 0)}

	case p.fiatSet[trade.Source.Asset.Name]:
		commission := nativeCommission(trade.Commission)
		return []*domain.LedgerRow{p.row(trade, domain.TradeTypeBuy, trade.Source.Asset.Name,
			trade.Destination, trade.Source.Amount-commission, commission)}

	case p.fiatSet[trade.Destination.Asset.Name]:
		commission := nativeCommission(trade.Commission)
		return []*domain.LedgerRow{p.row(trade, domain.TradeTypeSell, trade.Destination.Asset.Name,
			*trade.Source, trade.Destination.Amount-commission, commission)}

	default:
		// No fiat leg: one disposal and one acquisition against the
		// trade's fiat notional. The commission is split so the two
		// shares sum exactly to the original; the sell share is
		// truncated to cents and the buy leg takes the remainder.
		commission := nativeCommission(trade.Commission)
		sellShare := math.Floor(commission*100/2) / 100
		buyShare := commission - sellShare

		return []*domain.LedgerRow{
			p.row(trade, domain.TradeTypeSell, p.fiatReference, *trade.Source, trade.USDAmount-sellShare, sellShare),
			p.row(trade, domain.TradeTypeBuy, p.fiatReference, trade.Destination, trade.USDAmount-buyShare, buyShare),
		}
	}
}

// projectAirdrop maps an airdrop like a free acquisition. The note names
// the originating program and fills the application column.
func (p *Projector) projectAirdrop(airdrop domain.Airdrop) *domain.LedgerRow {
	return &domain.LedgerRow{
		Application:  airdrop.Note,
		TxID:         airdrop.TxID,
		Currency:     p.fiatReference,
		Account:      p.fiatReference,
		Asset:        airdrop.Amount.Asset.Name,
		Ticker:       airdrop.Amount.Asset.Name,
		Type:         domain.TradeTypeBuy,
		CryptoAmount: airdrop.Amount.Amount,
		FiatAmount:   nominalFiatAmount,
		Timestamp:    airdrop.Timestamp,
	}
}

// row builds one ledger row for the given leg of a trade. The currency
// column carries the matched fiat leg's ticker, or the reference fiat
// when no leg is fiat.
func (p *Projector) row(trade domain.Trade, typ domain.TradeType, currency string, leg domain.Amount, fiat, commission float64) *domain.LedgerRow {
	return &domain.LedgerRow{
		Application:      trade.Application,
		TxID:             trade.TxID,
		Currency:         currency,
		Account:          currency,
		Asset:            leg.Asset.Name,
		Ticker:           leg.Asset.Name,
		Type:             typ,
		CryptoAmount:     leg.Amount,
		FiatAmount:       fiat,
		CommissionAmount: commission,
		Timestamp:        trade.Timestamp,
	}
}

// nativeCommission returns the commission's native amount, zero if absent.
func nativeCommission(c *domain.Commission) float64 {
	if c == nil {
		return 0
	}
	return c.Amount.Amount
}
