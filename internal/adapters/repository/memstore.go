package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/welltest/internal/domain/model"
	"github.com/okian/welltest/pkg/metrics"
)

// MemoryStore is an in-memory Store keyed by file name.
type MemoryStore struct {
	mu           sync.RWMutex
	results      map[string]model.Analysis
	capacityHint int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	s.results = make(map[string]model.Analysis, s.capacityHint)
	return s
}

func (s *MemoryStore) Put(_ context.Context, a model.Analysis) error { //nolint:gocritic // hugeParam: stored by value
	if a.File == "" {
		return ErrMissingFile
	}
	s.mu.Lock()
	s.results[a.File] = a
	n := len(s.results)
	s.mu.Unlock()

	metrics.UpdateResultsTotal(n)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, file string) (model.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.results[file]
	if !ok {
		return model.Analysis{}, fmt.Errorf("%w: %s", ErrNotFound, file)
	}
	return a, nil
}

func (s *MemoryStore) All(_ context.Context) []model.Analysis {
	s.mu.RLock()
	out := make([]model.Analysis, 0, len(s.results))
	for _, a := range s.results {
		out = append(out, a)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}

func (s *MemoryStore) Worst(ctx context.Context, n int) ([]model.Analysis, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}

	scored := make([]model.Analysis, 0, n)
	for _, a := range s.All(ctx) {
		if a.Scored {
			scored = append(scored, a)
		}
	}
	// All is already ordered by file, so a stable sort keeps name order on ties.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MeanF1() < scored[j].MeanF1()
	})
	if len(scored) > n {
		scored = scored[:n]
	}
	return scored, nil
}

func (s *MemoryStore) Averages(_ context.Context) Averages {
	s.mu.RLock()
	defer s.mu.RUnlock()

	avg := Averages{Files: len(s.results)}
	var rec, drop []float64
	for _, a := range s.results {
		if !a.Scored {
			continue
		}
		rec = append(rec, a.F1Recovery)
		drop = append(drop, a.F1Drawdown)
	}
	avg.Scored = len(rec)
	if avg.Scored == 0 {
		return avg
	}
	avg.Recovery = stat.Mean(rec, nil)
	avg.Drawdown = stat.Mean(drop, nil)
	avg.Mean = (avg.Recovery + avg.Drawdown) / 2
	return avg
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
