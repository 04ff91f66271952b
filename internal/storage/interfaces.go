package storage

import (
	"context"

	"cryptofolio/internal/domain"
)

// MexcFillStore provides access to raw MEXC fill storage.
// Uniqueness by fill id is enforced here, not by fetch logic, so two
// concurrent fetches over overlapping id ranges cannot double-insert.
type MexcFillStore interface {
	// Insert adds a new fill. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, fill *domain.MexcFill) error

	// Exists checks whether a fill id has already been stored.
	Exists(ctx context.Context, id string) (bool, error)

	// GetAll retrieves every stored fill, ordered by time ASC, id ASC.
	GetAll(ctx context.Context) ([]*domain.MexcFill, error)
}

// CoinbaseRowStore provides access to raw Coinbase transaction storage.
type CoinbaseRowStore interface {
	// Insert adds a new row. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, row *domain.CoinbaseTransaction) error

	// Exists checks whether a transaction id has already been stored.
	Exists(ctx context.Context, id string) (bool, error)

	// GetAll retrieves every stored row, ordered by created_at ASC, id ASC.
	GetAll(ctx context.Context) ([]*domain.CoinbaseTransaction, error)
}

// LedgerStore persists exported ledger rows for ad-hoc analysis.
// The CSV file remains the canonical export; this mirror is optional.
type LedgerStore interface {
	// InsertBatch appends a batch of ledger rows.
	InsertBatch(ctx context.Context, rows []*domain.LedgerRow) error
}
