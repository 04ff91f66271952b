package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"cryptofolio/internal/observability"
)

// Fetcher retrieves one exchange's history into raw storage.
type Fetcher interface {
	Exchange() string
	Fetch(ctx context.Context) (stored, duplicates int, err error)
}

// Result is the outcome of one exchange's fetch.
type Result struct {
	Exchange   string
	Stored     int
	Duplicates int
}

// Service runs fetches across exchanges. All exchanges run concurrently
// and every branch is awaited before any error surfaces, so one slow or
// failing exchange never cancels another's partially stored progress.
type Service struct {
	fetchers []Fetcher
	log      zerolog.Logger
}

// NewService creates a Service over the given fetchers.
func NewService(log zerolog.Logger, fetchers ...Fetcher) *Service {
	return &Service{fetchers: fetchers, log: log}
}

// Run fetches the named exchange, or every registered exchange when name
// is empty. Results are ordered by fetcher registration. When branches
// fail, the first registered branch's error is returned after all
// branches complete.
func (s *Service) Run(ctx context.Context, name string) ([]Result, error) {
	fetchers := s.fetchers
	if name != "" {
		f, err := s.find(name)
		if err != nil {
			return nil, err
		}
		fetchers = []Fetcher{f}
	}

	results := make([]Result, len(fetchers))
	errs := make([]error, len(fetchers))

	var wg sync.WaitGroup
	for i, f := range fetchers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			start := time.Now()
			stored, duplicates, err := f.Fetch(ctx)
			observability.RecordFetch(f.Exchange(), stored, duplicates, time.Since(start).Seconds(), err)
			if err != nil {
				errs[i] = fmt.Errorf("fetch %s: %w", f.Exchange(), err)
				return
			}
			results[i] = Result{Exchange: f.Exchange(), Stored: stored, Duplicates: duplicates}
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			s.log.Error().Err(err).Str("exchange", fetchers[i].Exchange()).Msg("fetch failed")
			return nil, err
		}
	}

	return results, nil
}

// find resolves a fetcher by exchange name.
func (s *Service) find(name string) (Fetcher, error) {
	for _, f := range s.fetchers {
		if f.Exchange() == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("unknown exchange %q", name)
}
