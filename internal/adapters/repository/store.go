// Package repository stores per-file analysis results and ranks them.
package repository

import (
	"context"

	"github.com/okian/welltest/internal/domain/model"
)

// Averages summarises the scored results of a run.
type Averages struct {
	Recovery float64 `json:"recovery"`
	Drawdown float64 `json:"drop"`
	Mean     float64 `json:"mean"`
	Scored   int     `json:"scored"`
	Files    int     `json:"files"`
}

// Store provides read/write access to analysis results.
type Store interface {
	// Put stores a, replacing any earlier result for the same file.
	Put(ctx context.Context, a model.Analysis) error

	// Get returns the result for file or ErrNotFound.
	Get(ctx context.Context, file string) (model.Analysis, error)

	// All returns every result ordered by file name.
	All(ctx context.Context) []model.Analysis

	// Worst returns up to n scored results with the lowest mean F1, ties
	// broken by file name. n must be positive.
	Worst(ctx context.Context, n int) ([]model.Analysis, error)

	// Averages returns the per-class mean F1 over scored results.
	Averages(ctx context.Context) Averages

	// Count returns the number of stored results.
	Count(ctx context.Context) int
}
