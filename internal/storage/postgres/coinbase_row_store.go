package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"cryptofolio/internal/domain"
	"cryptofolio/internal/storage"
)

// CoinbaseRowStore implements storage.CoinbaseRowStore using PostgreSQL.
type CoinbaseRowStore struct {
	pool *Pool
}

// NewCoinbaseRowStore creates a new CoinbaseRowStore.
func NewCoinbaseRowStore(pool *Pool) *CoinbaseRowStore {
	return &CoinbaseRowStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CoinbaseRowStore = (*CoinbaseRowStore)(nil)

// Insert adds a new row. Returns ErrDuplicateKey if the id exists.
func (s *CoinbaseRowStore) Insert(ctx context.Context, row *domain.CoinbaseTransaction) error {
	if row == nil || row.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO coinbase_transactions (
			id, account_id, type, status, amount, currency,
			native_amount, native_currency, created_at, updated_at, stored_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		row.ID,
		row.AccountID,
		row.Type,
		row.Status,
		row.Amount,
		row.Currency,
		row.NativeAmount,
		row.NativeCurrency,
		row.CreatedAt,
		row.UpdatedAt,
		time.Now().UnixMilli(),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert coinbase transaction: %w", err)
	}
	return nil
}

// Exists checks whether a transaction id has already been stored.
func (s *CoinbaseRowStore) Exists(ctx context.Context, id string) (bool, error) {
	var found string
	err := s.pool.QueryRow(ctx, `SELECT id FROM coinbase_transactions WHERE id = $1`, id).Scan(&found)
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("check coinbase transaction exists: %w", err)
	}
	return true, nil
}

// GetAll retrieves every stored row, ordered by created_at ASC, id ASC.
func (s *CoinbaseRowStore) GetAll(ctx context.Context) ([]*domain.CoinbaseTransaction, error) {
	query := `
		SELECT id, account_id, type, status, amount, currency,
		       native_amount, native_currency, created_at, updated_at, stored_at
		FROM coinbase_transactions
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all coinbase transactions: %w", err)
	}
	defer rows.Close()

	return scanCoinbaseRows(rows)
}

// scanCoinbaseRows scans multiple rows into a slice of CoinbaseTransaction.
func scanCoinbaseRows(rows pgx.Rows) ([]*domain.CoinbaseTransaction, error) {
	var txs []*domain.CoinbaseTransaction

	for rows.Next() {
		var tx domain.CoinbaseTransaction

		err := rows.Scan(
			&tx.ID,
			&tx.AccountID,
			&tx.Type,
			&tx.Status,
			&tx.Amount,
			&tx.Currency,
			&tx.NativeAmount,
			&tx.NativeCurrency,
			&tx.CreatedAt,
			&tx.UpdatedAt,
			&tx.StoredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan coinbase transaction row: %w", err)
		}

		txs = append(txs, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coinbase transaction rows: %w", err)
	}

	return txs, nil
}
