package reconcile

import (
	"sort"

	"cryptofolio/internal/domain"
)

// Merge combines per-exchange transaction streams into one history
// ordered by time ASC. The sort is stable, so transactions with equal
// timestamps keep their per-stream order and the relative order of the
// input streams. Inputs are not mutated.
func Merge(streams ...[]domain.Transaction) []domain.Transaction {
	var total int
	for _, stream := range streams {
		total += len(stream)
	}

	merged := make([]domain.Transaction, 0, total)
	for _, stream := range streams {
		merged = append(merged, stream...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Time().Before(merged[j].Time())
	})

	return merged
}
