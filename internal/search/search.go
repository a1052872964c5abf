// Package search evaluates detector parameter combinations against annotated
// records and ranks them by mean F1.
package search

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/welltest/internal/domain/detect"
	"github.com/okian/welltest/internal/domain/model"
	"github.com/okian/welltest/internal/domain/scoring"
)

// ErrNoTrials is returned when no combination could be evaluated.
var ErrNoTrials = errors.New("no parameter combination could be evaluated")

// Grid lists the values tried for each tunable parameter. An empty list keeps
// the base value.
type Grid struct {
	WindowSizes     []int     `json:"window_sizes" koanf:"window_sizes"`
	Thresholds      []float64 `json:"thresholds" koanf:"thresholds"`
	NoiseThresholds []float64 `json:"noise_thresholds" koanf:"noise_thresholds"`
}

// DefaultGrid is the coarse grid used when none is configured.
func DefaultGrid() Grid {
	return Grid{
		WindowSizes:     []int{5, 11, 15},
		Thresholds:      []float64{3, 5, 7},
		NoiseThresholds: []float64{5, 10, 15},
	}
}

// Expand returns one Params per combination, window size varying slowest.
func (g Grid) Expand(base detect.Params) []detect.Params {
	windows := g.WindowSizes
	if len(windows) == 0 {
		windows = []int{base.WindowSize}
	}
	thresholds := g.Thresholds
	if len(thresholds) == 0 {
		thresholds = []float64{base.Threshold}
	}
	noise := g.NoiseThresholds
	if len(noise) == 0 {
		noise = []float64{base.NoiseThreshold}
	}

	out := make([]detect.Params, 0, len(windows)*len(thresholds)*len(noise))
	for _, w := range windows {
		for _, th := range thresholds {
			for _, nt := range noise {
				p := base
				p.WindowSize, p.Threshold, p.NoiseThreshold = w, th, nt
				out = append(out, p)
			}
		}
	}
	return out
}

// Sample is one annotated record.
type Sample struct {
	Name   string
	Series model.Series
	Truth  model.Truth
}

// Trial is the outcome of one parameter combination.
type Trial struct {
	Params     detect.Params `json:"params"`
	F1Recovery float64       `json:"f1_recovery"`
	F1Drawdown float64       `json:"f1_drop"`
	Mean       float64       `json:"mean"`
	// Evaluated counts the records the combination ran on; Failed those
	// where detection or scoring returned an error.
	Evaluated int    `json:"evaluated"`
	Failed    int    `json:"failed"`
	Err       string `json:"error,omitempty"`

	order int
}

// Outcome holds every trial, best first.
type Outcome struct {
	Best   Trial   `json:"best"`
	Trials []Trial `json:"trials"`
}

// Option configures Run.
type Option func(*runner)

type runner struct {
	concurrency int
	scoreOpts   []scoring.Option
}

// WithConcurrency caps how many combinations are evaluated at once.
func WithConcurrency(n int) Option {
	return func(r *runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithScoring sets the scorer options used for every record.
func WithScoring(opts ...scoring.Option) Option {
	return func(r *runner) {
		r.scoreOpts = append([]scoring.Option(nil), opts...)
	}
}

// Run evaluates every combination of grid over base on data. Combinations
// whose parameters are invalid are kept in the outcome with Err set. Run fails
// only when ctx is cancelled or no combination could be evaluated.
func Run(ctx context.Context, base detect.Params, grid Grid, data []Sample, opts ...Option) (Outcome, error) {
	r := runner{concurrency: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&r)
	}

	combos := grid.Expand(base)
	trials := make([]Trial, len(combos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, p := range combos {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			trials[i] = r.evaluate(p, data)
			trials[i].order = i
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}

	sort.SliceStable(trials, func(i, j int) bool {
		a, b := trials[i], trials[j]
		if (a.Err == "") != (b.Err == "") {
			return a.Err == ""
		}
		if a.Mean != b.Mean {
			return a.Mean > b.Mean
		}
		return a.order < b.order
	})

	out := Outcome{Trials: trials}
	if len(trials) == 0 || trials[0].Err != "" {
		return out, ErrNoTrials
	}
	out.Best = trials[0]
	return out, nil
}

func (r runner) evaluate(p detect.Params, data []Sample) Trial {
	t := Trial{Params: p}
	if err := p.Validate(); err != nil {
		t.Err = err.Error()
		return t
	}

	var rec, drop []float64
	for _, s := range data {
		res, err := detect.Detect(s.Series, p)
		if err != nil {
			t.Failed++
			continue
		}
		fr, errR := scoring.Score(s.Truth.Recovery, res.Recovery, s.Series, r.scoreOpts...)
		fd, errD := scoring.Score(s.Truth.Drawdown, res.Drawdown, s.Series, r.scoreOpts...)
		if errR != nil || errD != nil {
			t.Failed++
			continue
		}
		rec = append(rec, fr)
		drop = append(drop, fd)
	}

	t.Evaluated = len(rec)
	if t.Evaluated == 0 {
		t.Err = fmt.Sprintf("no record evaluated (%d failed)", t.Failed)
		return t
	}
	t.F1Recovery = stat.Mean(rec, nil)
	t.F1Drawdown = stat.Mean(drop, nil)
	t.Mean = (t.F1Recovery + t.F1Drawdown) / 2
	return t
}
