package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"cryptofolio/internal/domain"
	"cryptofolio/internal/storage"
)

// MexcFillStore implements storage.MexcFillStore using PostgreSQL.
type MexcFillStore struct {
	pool *Pool
}

// NewMexcFillStore creates a new MexcFillStore.
func NewMexcFillStore(pool *Pool) *MexcFillStore {
	return &MexcFillStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MexcFillStore = (*MexcFillStore)(nil)

// Insert adds a new fill. Returns ErrDuplicateKey if the id exists.
func (s *MexcFillStore) Insert(ctx context.Context, fill *domain.MexcFill) error {
	if fill == nil || fill.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO mexc_fills (
			id, symbol, order_id, order_list_id, price, qty, quote_qty,
			commission, commission_asset, time, is_buyer, is_maker,
			is_best_match, is_self_trade, client_order_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := s.pool.Exec(ctx, query,
		fill.ID,
		fill.Symbol,
		fill.OrderID,
		fill.OrderListID,
		fill.Price,
		fill.Qty,
		fill.QuoteQty,
		fill.Commission,
		fill.CommissionAsset,
		fill.Time,
		fill.IsBuyer,
		fill.IsMaker,
		fill.IsBestMatch,
		fill.IsSelfTrade,
		fill.ClientOrderID,
		time.Now().UnixMilli(),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert mexc fill: %w", err)
	}
	return nil
}

// Exists checks whether a fill id has already been stored.
func (s *MexcFillStore) Exists(ctx context.Context, id string) (bool, error) {
	var found string
	err := s.pool.QueryRow(ctx, `SELECT id FROM mexc_fills WHERE id = $1`, id).Scan(&found)
	if err != nil {
		if isNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("check mexc fill exists: %w", err)
	}
	return true, nil
}

// GetAll retrieves every stored fill, ordered by time ASC, id ASC.
func (s *MexcFillStore) GetAll(ctx context.Context) ([]*domain.MexcFill, error) {
	query := `
		SELECT id, symbol, order_id, order_list_id, price, qty, quote_qty,
		       commission, commission_asset, time, is_buyer, is_maker,
		       is_best_match, is_self_trade, client_order_id, created_at
		FROM mexc_fills
		ORDER BY time ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all mexc fills: %w", err)
	}
	defer rows.Close()

	return scanMexcFills(rows)
}

// scanMexcFills scans multiple rows into a slice of MexcFill.
func scanMexcFills(rows pgx.Rows) ([]*domain.MexcFill, error) {
	var fills []*domain.MexcFill

	for rows.Next() {
		var fill domain.MexcFill

		err := rows.Scan(
			&fill.ID,
			&fill.Symbol,
			&fill.OrderID,
			&fill.OrderListID,
			&fill.Price,
			&fill.Qty,
			&fill.QuoteQty,
			&fill.Commission,
			&fill.CommissionAsset,
			&fill.Time,
			&fill.IsBuyer,
			&fill.IsMaker,
			&fill.IsBestMatch,
			&fill.IsSelfTrade,
			&fill.ClientOrderID,
			&fill.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan mexc fill row: %w", err)
		}

		fills = append(fills, &fill)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mexc fill rows: %w", err)
	}

	return fills, nil
}
