package mexc

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"cryptofolio/internal/domain"
	"cryptofolio/internal/storage"
)

// TradeAPI is the slice of the REST client the fetcher needs.
type TradeAPI interface {
	MyTrades(ctx context.Context, symbol string) ([]Fill, error)
}

// Fetcher retrieves fill history for the configured symbols and persists
// it. Retrieval fans out per symbol; any single failure aborts the whole
// batch. Deduplication is the store's job: an ErrDuplicateKey insert is
// counted and skipped, so re-running fetch is idempotent.
type Fetcher struct {
	api     TradeAPI
	store   storage.MexcFillStore
	symbols []string
	log     zerolog.Logger
}

// NewFetcher creates a Fetcher for the given symbols.
func NewFetcher(api TradeAPI, store storage.MexcFillStore, symbols []string, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		api:     api,
		store:   store,
		symbols: symbols,
		log:     log.With().Str("exchange", "mexc").Logger(),
	}
}

// Exchange returns the exchange name.
func (f *Fetcher) Exchange() string { return "mexc" }

// Fetch retrieves and persists fills for all configured symbols.
// Returns counts of newly stored rows and of duplicates skipped.
func (f *Fetcher) Fetch(ctx context.Context) (stored, duplicates int, err error) {
	var storedCount, duplicateCount atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for _, symbol := range f.symbols {
		g.Go(func() error {
			s, d, err := f.fetchSymbol(ctx, symbol)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", symbol, err)
			}
			storedCount.Add(int64(s))
			duplicateCount.Add(int64(d))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	f.log.Info().
		Int64("stored", storedCount.Load()).
		Int64("duplicates", duplicateCount.Load()).
		Msg("fetch complete")

	return int(storedCount.Load()), int(duplicateCount.Load()), nil
}

// fetchSymbol retrieves and persists fills for one symbol.
func (f *Fetcher) fetchSymbol(ctx context.Context, symbol string) (stored, duplicates int, err error) {
	fills, err := f.api.MyTrades(ctx, symbol)
	if err != nil {
		return 0, 0, err
	}

	for _, fill := range fills {
		row := toRawFill(fill)
		if err := f.store.Insert(ctx, row); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				duplicates++
				continue
			}
			return stored, duplicates, fmt.Errorf("store fill %s: %w", fill.ID, err)
		}
		stored++
	}

	f.log.Debug().
		Str("symbol", symbol).
		Int("stored", stored).
		Int("duplicates", duplicates).
		Msg("symbol fetched")

	return stored, duplicates, nil
}

// toRawFill maps an API fill to its storage shape.
func toRawFill(fill Fill) *domain.MexcFill {
	return &domain.MexcFill{
		ID:              fill.ID,
		Symbol:          fill.Symbol,
		OrderID:         fill.OrderID,
		OrderListID:     fill.OrderListID,
		Price:           fill.Price,
		Qty:             fill.Qty,
		QuoteQty:        fill.QuoteQty,
		Commission:      fill.Commission,
		CommissionAsset: fill.CommissionAsset,
		Time:            fill.Time,
		IsBuyer:         fill.IsBuyer,
		IsMaker:         fill.IsMaker,
		IsBestMatch:     fill.IsBestMatch,
		IsSelfTrade:     fill.IsSelfTrade,
		ClientOrderID:   fill.ClientOrderID,
	}
}
