package memory

import (
	"context"
	"sort"
	"sync"

	"cryptofolio/internal/domain"
	"cryptofolio/internal/storage"
)

// CoinbaseRowStore is an in-memory implementation of storage.CoinbaseRowStore.
type CoinbaseRowStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CoinbaseTransaction // keyed by transaction id
}

// NewCoinbaseRowStore creates a new in-memory Coinbase row store.
func NewCoinbaseRowStore() *CoinbaseRowStore {
	return &CoinbaseRowStore{
		data: make(map[string]*domain.CoinbaseTransaction),
	}
}

// Compile-time interface check.
var _ storage.CoinbaseRowStore = (*CoinbaseRowStore)(nil)

// Insert adds a new row. Returns ErrDuplicateKey if the id exists.
func (s *CoinbaseRowStore) Insert(_ context.Context, row *domain.CoinbaseTransaction) error {
	if row == nil || row.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[row.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *row
	s.data[row.ID] = &copy
	return nil
}

// Exists checks whether a transaction id has already been stored.
func (s *CoinbaseRowStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.data[id]
	return exists, nil
}

// GetAll retrieves every stored row, ordered by created_at ASC, id ASC.
func (s *CoinbaseRowStore) GetAll(_ context.Context) ([]*domain.CoinbaseTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.CoinbaseTransaction, 0, len(s.data))
	for _, row := range s.data {
		copy := *row
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}
