package coinbase

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"cryptofolio/internal/domain"
)

// UnimplementedTransactionTypeError is returned for a row whose type has
// no defined handling. New Coinbase transaction types must be classified
// explicitly; an unknown type aborts normalization rather than leaking
// out of the accounting.
type UnimplementedTransactionTypeError struct {
	TxID string
	Type string
}

func (e *UnimplementedTransactionTypeError) Error() string {
	return fmt.Sprintf("transaction %s: unimplemented transaction type %q", e.TxID, e.Type)
}

// UnimplementedCurrencyError is returned when a trade leg is denominated
// in a fiat other than the configured reference fiat. Pairing arithmetic
// compares fiat values of the two legs and is only valid within one
// currency.
type UnimplementedCurrencyError struct {
	TxID     string
	Currency string
	Expected string
}

func (e *UnimplementedCurrencyError) Error() string {
	return fmt.Sprintf("transaction %s: native currency %q, expected %q", e.TxID, e.Currency, e.Expected)
}

// PairingError is a violation of the two-row trade pairing protocol:
// either a second row arrives for a slot that is already occupied, or
// the stream ends with an unpaired leg.
type PairingError struct {
	TxID   string
	Reason string
}

func (e *PairingError) Error() string {
	return fmt.Sprintf("trade pairing: %s (transaction %s)", e.Reason, e.TxID)
}

// pendingLeg is one half of a conversion awaiting its counterpart.
type pendingLeg struct {
	txID      string
	amount    domain.Amount
	fiatValue float64
	at        time.Time
}

// Normalizer converts raw Coinbase transaction rows into canonical
// transactions. Coinbase reports each asset conversion as two rows of
// type "trade", one per account; the normalizer pairs them by sign and
// emits a single Trade.
type Normalizer struct {
	referenceFiat string
}

// NewNormalizer creates a Normalizer for accounts denominated in
// referenceFiat (e.g. "EUR").
func NewNormalizer(referenceFiat string) *Normalizer {
	return &Normalizer{referenceFiat: referenceFiat}
}

// Normalize converts rows, assumed ordered by created_at ASC, into
// canonical transactions. The input ordering is what makes two-row trade
// pairing deterministic.
func (n *Normalizer) Normalize(rows []*domain.CoinbaseTransaction) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0, len(rows))

	var source, destination *pendingLeg

	for _, row := range rows {
		switch row.Type {
		case domain.CoinbaseTypeBuy, domain.CoinbaseTypeSell:
			// Purchases settled directly in the reference fiat are
			// covered by the paired "trade" rows of the same
			// conversion; counting both would double the position.
			if row.NativeCurrency == n.referenceFiat {
				continue
			}
			trade, err := n.directTrade(row)
			if err != nil {
				return nil, fmt.Errorf("normalize transaction %s: %w", row.ID, err)
			}
			txs = append(txs, trade)

		case domain.CoinbaseTypeEarnPayout:
			trade, err := n.earnPayout(row)
			if err != nil {
				return nil, fmt.Errorf("normalize transaction %s: %w", row.ID, err)
			}
			txs = append(txs, trade)

		case domain.CoinbaseTypeSend, domain.CoinbaseTypeFiatDeposit:
			// Transfers in and out do not change what was acquired
			// or disposed of on the exchange.
			continue

		case domain.CoinbaseTypeTrade:
			leg, err := n.tradeLeg(row)
			if err != nil {
				return nil, err
			}
			if leg.outgoing {
				if source != nil {
					return nil, &PairingError{TxID: row.ID, Reason: "second outgoing leg before pair completed"}
				}
				source = &leg.pendingLeg
			} else {
				if destination != nil {
					return nil, &PairingError{TxID: row.ID, Reason: "second incoming leg before pair completed"}
				}
				destination = &leg.pendingLeg
			}

			if source != nil && destination != nil {
				txs = append(txs, n.pairedTrade(source, destination))
				source, destination = nil, nil
			}

		default:
			return nil, &UnimplementedTransactionTypeError{TxID: row.ID, Type: row.Type}
		}
	}

	if source != nil {
		return nil, &PairingError{TxID: source.txID, Reason: "unpaired outgoing leg at end of history"}
	}
	if destination != nil {
		return nil, &PairingError{TxID: destination.txID, Reason: "unpaired incoming leg at end of history"}
	}

	return txs, nil
}

// directTrade maps a buy or sell settled in a non-reference fiat to a
// single Trade. Both legs come from the one row: the crypto amount and
// its value in the row's native currency.
func (n *Normalizer) directTrade(row *domain.CoinbaseTransaction) (domain.Trade, error) {
	cryptoAmount, err := parseAbs(row.Amount)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parse amount %q: %w", row.Amount, err)
	}
	fiatAmount, err := parseAbs(row.NativeAmount)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parse native amount %q: %w", row.NativeAmount, err)
	}

	crypto := domain.Amount{Amount: cryptoAmount, Asset: domain.NewAsset(row.Currency)}
	fiat := domain.Amount{Amount: fiatAmount, Asset: domain.NewAsset(row.NativeCurrency)}

	var src, dst domain.Amount
	if row.Type == domain.CoinbaseTypeBuy {
		src, dst = fiat, crypto
	} else {
		src, dst = crypto, fiat
	}

	return domain.Trade{
		Application: Application,
		TxID:        row.ID,
		Source:      &src,
		Destination: dst,
		USDAmount:   fiatAmount,
		Timestamp:   row.CreatedAt.UTC(),
	}, nil
}

// earnPayout maps a staking reward to a Trade with a nil Source: an
// acquisition that cost nothing.
func (n *Normalizer) earnPayout(row *domain.CoinbaseTransaction) (domain.Trade, error) {
	cryptoAmount, err := parseAbs(row.Amount)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parse amount %q: %w", row.Amount, err)
	}
	fiatAmount, err := parseAbs(row.NativeAmount)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parse native amount %q: %w", row.NativeAmount, err)
	}

	return domain.Trade{
		Application: Application,
		TxID:        row.ID,
		Source:      nil,
		Destination: domain.Amount{Amount: cryptoAmount, Asset: domain.NewAsset(row.Currency)},
		USDAmount:   fiatAmount,
		Timestamp:   row.CreatedAt.UTC(),
	}, nil
}

// tradeLeg classifies one "trade" row as the outgoing or incoming half
// of a conversion. The sign of the crypto amount carries the direction.
type classifiedLeg struct {
	pendingLeg
	outgoing bool
}

func (n *Normalizer) tradeLeg(row *domain.CoinbaseTransaction) (classifiedLeg, error) {
	if row.NativeCurrency != n.referenceFiat {
		return classifiedLeg{}, &UnimplementedCurrencyError{
			TxID:     row.ID,
			Currency: row.NativeCurrency,
			Expected: n.referenceFiat,
		}
	}

	amount, err := strconv.ParseFloat(row.Amount, 64)
	if err != nil {
		return classifiedLeg{}, fmt.Errorf("normalize transaction %s: parse amount %q: %w", row.ID, row.Amount, err)
	}
	fiatValue, err := strconv.ParseFloat(row.NativeAmount, 64)
	if err != nil {
		return classifiedLeg{}, fmt.Errorf("normalize transaction %s: parse native amount %q: %w", row.ID, row.NativeAmount, err)
	}

	return classifiedLeg{
		pendingLeg: pendingLeg{
			txID: row.ID,
			amount: domain.Amount{
				Amount: math.Abs(amount),
				Asset:  domain.NewAsset(row.Currency),
			},
			fiatValue: math.Abs(fiatValue),
			at:        row.CreatedAt.UTC(),
		},
		outgoing: amount < 0,
	}, nil
}

// pairedTrade merges the two halves of a conversion. The fiat gap
// between what left and what arrived is the commission; equal fiat
// values mean a free conversion and a nil commission. A negative gap
// (the incoming leg valued above the outgoing one, price movement
// between the rows) is not a fee and maps to nil as well; a negative
// commission would inflate fiat amounts downstream.
func (n *Normalizer) pairedTrade(source, destination *pendingLeg) domain.Trade {
	var commission *domain.Commission
	if gap := source.fiatValue - destination.fiatValue; gap > 0 {
		commission = &domain.Commission{
			Amount: domain.Amount{
				Amount: gap,
				Asset:  domain.NewAsset(n.referenceFiat),
			},
			USDAmount: gap,
		}
	}

	at := source.at
	if destination.at.After(at) {
		at = destination.at
	}

	return domain.Trade{
		Application: Application,
		TxID:        source.txID,
		Source:      &source.amount,
		Destination: destination.amount,
		Commission:  commission,
		USDAmount:   source.fiatValue,
		Timestamp:   at,
	}
}

// parseAbs parses a signed decimal string and returns its magnitude.
func parseAbs(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return math.Abs(v), nil
}
