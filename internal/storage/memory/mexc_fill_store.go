package memory

import (
	"context"
	"sort"
	"sync"

	"cryptofolio/internal/domain"
	"cryptofolio/internal/storage"
)

// MexcFillStore is an in-memory implementation of storage.MexcFillStore.
type MexcFillStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MexcFill // keyed by fill id
}

// NewMexcFillStore creates a new in-memory MEXC fill store.
func NewMexcFillStore() *MexcFillStore {
	return &MexcFillStore{
		data: make(map[string]*domain.MexcFill),
	}
}

// Compile-time interface check.
var _ storage.MexcFillStore = (*MexcFillStore)(nil)

// Insert adds a new fill. Returns ErrDuplicateKey if the id exists.
func (s *MexcFillStore) Insert(_ context.Context, fill *domain.MexcFill) error {
	if fill == nil || fill.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[fill.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *fill
	s.data[fill.ID] = &copy
	return nil
}

// Exists checks whether a fill id has already been stored.
func (s *MexcFillStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.data[id]
	return exists, nil
}

// GetAll retrieves every stored fill, ordered by time ASC, id ASC.
func (s *MexcFillStore) GetAll(_ context.Context) ([]*domain.MexcFill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.MexcFill, 0, len(s.data))
	for _, fill := range s.data {
		copy := *fill
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Time != result[j].Time {
			return result[i].Time < result[j].Time
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}
