package coinbase

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

// AccountAPI is the slice of the REST client the fetcher needs.
type AccountAPI interface {
	Accounts(ctx context.Context) ([]Account, error)
	Transactions(ctx context.Context, accountID string) ([]TransactionRow, error)
}

// Fetcher retrieves transaction history for every wallet account and
// persists it. Retrieval fans out per account; any single failure aborts
// the whole batch. Deduplication is the store's job: an ErrDuplicateKey
// insert is counted and skipped, so re-running fetch is idempotent.
type Fetcher struct {
	api   AccountAPI
	store storage.CoinbaseRowStore
	log   zerolog.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(api AccountAPI, store storage.CoinbaseRowStore, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		api:   api,
		store: store,
		log:   log.With().Str("exchange", "coinbase").Logger(),
	}
}

// Exchange returns the exchange name.
func (f *Fetcher) Exchange() string { return "coinbase" }

// Fetch retrieves and persists transactions for all accounts.
// Returns counts of newly stored rows and of duplicates skipped.
func (f *Fetcher) Fetch(ctx context.Context) (stored, duplicates int, err error) {
	accounts, err := f.api.Accounts(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list accounts: %w", err)
	}

	var storedCount, duplicateCount atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for _, account := range accounts {
		g.Go(func() error {
			s, d, err := f.fetchAccount(ctx, account.ID)
			if err != nil {
				return fmt.Errorf("fetch account %s: %w", account.ID, err)
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
		Int("accounts", len(accounts)).
		Int64("stored", storedCount.Load()).
		Int64("duplicates", duplicateCount.Load()).
		Msg("fetch complete")

	return int(storedCount.Load()), int(duplicateCount.Load()), nil
}

// fetchAccount retrieves and persists transactions for one account.
func (f *Fetcher) fetchAccount(ctx context.Context, accountID string) (stored, duplicates int, err error) {
	rows, err := f.api.Transactions(ctx, accountID)
	if err != nil {
		return 0, 0, err
	}

	for _, row := range rows {
		if err := f.store.Insert(ctx, toRawRow(accountID, row)); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				duplicates++
				continue
			}
			return stored, duplicates, fmt.Errorf("store transaction %s: %w", row.ID, err)
		}
		stored++
	}

	f.log.Debug().
		Str("account_id", accountID).
		Int("stored", stored).
		Int("duplicates", duplicates).
		Msg("account fetched")

	return stored, duplicates, nil
}

// toRawRow maps an API transaction to its storage shape.
func toRawRow(accountID string, row TransactionRow) *domain.CoinbaseTransaction {
	return &domain.CoinbaseTransaction{
		ID:             row.ID,
		AccountID:      accountID,
		Type:           row.Type,
		Status:         row.Status,
		Amount:         row.Amount.Amount,
		Currency:       row.Amount.Currency,
		NativeAmount:   row.NativeAmount.Amount,
		NativeCurrency: row.NativeAmount.Currency,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
