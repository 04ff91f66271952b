package mexc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cryptofolio/internal/domain"
)

// UnsupportedSymbolError is returned for a fill whose symbol does not end
// with the configured quote suffix. The caller decides whether that is
// fatal or skippable; silent omission is never the default because it
// corrupts accounting totals.
type UnsupportedSymbolError struct {
	Symbol      string
	QuoteSuffix string
}

func (e *UnsupportedSymbolError) Error() string {
	return fmt.Sprintf("unsupported symbol %q: missing %q quote suffix", e.Symbol, e.QuoteSuffix)
}

// Normalizer converts raw MEXC fills into canonical trades.
// Each fill is a complete single fill: one crypto leg plus one
// quote-currency leg whose direction is given by is_buyer.
type Normalizer struct {
	quoteAsset      string
	skipUnsupported bool
	log             zerolog.Logger
}

// NormalizerOption configures Normalizer.
type NormalizerOption func(*Normalizer)

// WithSkipUnsupported makes the normalizer log and skip fills with an
// unsupported symbol instead of aborting the whole run.
func WithSkipUnsupported() NormalizerOption {
	return func(n *Normalizer) {
		n.skipUnsupported = true
	}
}

// WithLogger sets the logger used for skipped rows.
func WithLogger(log zerolog.Logger) NormalizerOption {
	return func(n *Normalizer) {
		n.log = log
	}
}

// NewNormalizer creates a Normalizer for symbols quoted in quoteAsset
// (e.g. "USDT").
func NewNormalizer(quoteAsset string, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		quoteAsset: quoteAsset,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts fills, assumed ordered by time ASC, into one Trade
// per fill. The first error aborts unless it is an UnsupportedSymbolError
// and skipping is enabled.
func (n *Normalizer) Normalize(fills []*domain.MexcFill) ([]domain.Transaction, error) {
	txs := make([]domain.Transaction, 0, len(fills))

	for _, fill := range fills {
		trade, err := n.normalizeFill(fill)
		if err != nil {
			var unsupported *UnsupportedSymbolError
			if n.skipUnsupported && errors.As(err, &unsupported) {
				n.log.Warn().
					Str("fill_id", fill.ID).
					Str("symbol", fill.Symbol).
					Msg("skipping fill with unsupported symbol")
				continue
			}
			return nil, fmt.Errorf("normalize fill %s: %w", fill.ID, err)
		}
		txs = append(txs, trade)
	}

	return txs, nil
}

// normalizeFill maps one fill to a Trade.
func (n *Normalizer) normalizeFill(fill *domain.MexcFill) (domain.Trade, error) {
	base, ok := strings.CutSuffix(fill.Symbol, n.quoteAsset)
	if !ok || base == "" {
		return domain.Trade{}, &UnsupportedSymbolError{Symbol: fill.Symbol, QuoteSuffix: n.quoteAsset}
	}

	qty, err := strconv.ParseFloat(fill.Qty, 64)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parse qty %q: %w", fill.Qty, err)
	}
	quoteQty, err := strconv.ParseFloat(fill.QuoteQty, 64)
	if err != nil {
		return domain.Trade{}, fmt.Errorf("parse quote qty %q: %w", fill.QuoteQty, err)
	}

	crypto := domain.Amount{Amount: qty, Asset: domain.NewAsset(base)}
	quote := domain.Amount{Amount: quoteQty, Asset: domain.NewAsset(n.quoteAsset)}

	var source, destination domain.Amount
	if fill.IsBuyer {
		// Paid quote currency, received crypto.
		source, destination = quote, crypto
	} else {
		source, destination = crypto, quote
	}

	commission, err := n.normalizeCommission(fill)
	if err != nil {
		return domain.Trade{}, err
	}

	return domain.Trade{
		Application: Application,
		TxID:        fill.ID,
		Source:      &source,
		Destination: destination,
		Commission:  commission,
		USDAmount:   quoteQty,
		Timestamp:   time.UnixMilli(fill.Time).UTC(),
	}, nil
}

// normalizeCommission maps the commission fields. A zero commission maps
// to nil. USDAmount takes the native amount at face value, which only
// holds for fiat-pegged commission assets; it is an approximation, not a
// conversion.
func (n *Normalizer) normalizeCommission(fill *domain.MexcFill) (*domain.Commission, error) {
	amount, err := strconv.ParseFloat(fill.Commission, 64)
	if err != nil {
		return nil, fmt.Errorf("parse commission %q: %w", fill.Commission, err)
	}
	if amount == 0 {
		return nil, nil
	}

	return &domain.Commission{
		Amount: domain.Amount{
			Amount: amount,
			Asset:  domain.NewAsset(fill.CommissionAsset),
		},
		USDAmount: amount,
	}, nil
}
