package clickhouse

import (
	"context"
	"fmt"
	"time"

	"cryptofolio/internal/domain"
	"cryptofolio/internal/storage"
)

// LedgerStore implements storage.LedgerStore using ClickHouse.
// Rows are keyed by (tx_id, type, asset) in a ReplacingMergeTree, so
// re-running an export converges instead of accumulating duplicates.
type LedgerStore struct {
	conn *Conn
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(conn *Conn) *LedgerStore {
	return &LedgerStore{conn: conn}
}

// Compile-time interface check.
var _ storage.LedgerStore = (*LedgerStore)(nil)

// InsertBatch appends a batch of ledger rows.
func (s *LedgerStore) InsertBatch(ctx context.Context, rows []*domain.LedgerRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO ledger_rows (
			application, tx_id, currency, account, asset, ticker, type,
			crypto_amount, fiat_amount, comission_amount, note, timestamp, exported_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	exportedAt := time.Now().UTC()
	for _, row := range rows {
		err = batch.Append(
			row.Application, row.TxID, row.Currency, row.Account,
			row.Asset, row.Ticker, string(row.Type),
			row.CryptoAmount, row.FiatAmount, row.CommissionAmount,
			row.Note, row.Timestamp, exportedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}
