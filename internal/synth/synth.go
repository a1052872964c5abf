// Package synth generates synthetic well-test records with planted build-ups
// and drawdowns and the annotation an analyst would give them.
package synth

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/okian/welltest/internal/domain/model"
)

// ErrInvalidConfig is returned for configurations that cannot produce a record.
var ErrInvalidConfig = errors.New("invalid synth config")

// Event plants one pressure ramp.
type Event struct {
	Kind model.Kind
	// At is the sample index where the ramp starts.
	At int
	// Ramp is the ramp length in samples and Rate the pressure change per
	// sample while ramping.
	Ramp int
	Rate float64
	// Length is the annotated duration in samples, counted from At.
	Length int
}

// Config describes one record.
type Config struct {
	Samples  int
	Step     float64 // hours between samples
	Baseline float64
	Noise    float64 // standard deviation of additive Gaussian noise
	Seed     uint64
	Events   []Event
}

// Record is a generated series with its annotation.
type Record struct {
	Series model.Series
	Truth  model.Truth
}

// DefaultConfig plants one build-up and one drawdown at a 12-minute cadence
// that the default detector parameters resolve.
func DefaultConfig() Config {
	return Config{
		Samples:  1200,
		Step:     0.2,
		Baseline: 200,
		Noise:    0.05,
		Seed:     1,
		Events: []Event{
			{Kind: model.Recovery, At: 200, Ramp: 20, Rate: 7, Length: 240},
			{Kind: model.Drawdown, At: 700, Ramp: 20, Rate: 7, Length: 36},
		},
	}
}

// Validate reports configurations Generate would reject.
func (c Config) Validate() error {
	if c.Samples < 2 {
		return fmt.Errorf("%w: need at least 2 samples, got %d", ErrInvalidConfig, c.Samples)
	}
	if c.Step <= 0 {
		return fmt.Errorf("%w: step must be positive", ErrInvalidConfig)
	}
	if c.Noise < 0 {
		return fmt.Errorf("%w: noise must not be negative", ErrInvalidConfig)
	}
	for i, e := range c.Events {
		if e.Kind != model.Recovery && e.Kind != model.Drawdown {
			return fmt.Errorf("%w: event %d has kind %q", ErrInvalidConfig, i, e.Kind)
		}
		if e.At < 0 || e.Ramp < 1 || e.Length < 1 || e.At+max(e.Ramp, e.Length) >= c.Samples {
			return fmt.Errorf("%w: event %d does not fit in %d samples", ErrInvalidConfig, i, c.Samples)
		}
	}
	return nil
}

// Generate builds the record described by c. The same config always yields
// the same record.
func Generate(c Config) (Record, error) {
	if err := c.Validate(); err != nil {
		return Record{}, err
	}
	noise := distuv.Normal{Mu: 0, Sigma: c.Noise, Src: rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15)}

	tm := make([]float64, c.Samples)
	for i := range tm {
		tm[i] = float64(i) * c.Step
	}

	// Per-sample pressure increments; ramps add on top of each other.
	delta := make([]float64, c.Samples)
	truth := model.Truth{Recovery: []model.Interval{}, Drawdown: []model.Interval{}}
	for _, e := range c.Events {
		sign := 1.0
		if e.Kind == model.Drawdown {
			sign = -1
		}
		for i := e.At + 1; i <= e.At+e.Ramp; i++ {
			delta[i] += sign * e.Rate
		}
		iv := model.Interval{Start: tm[e.At], End: tm[e.At+e.Length]}
		if e.Kind == model.Recovery {
			truth.Recovery = append(truth.Recovery, iv)
		} else {
			truth.Drawdown = append(truth.Drawdown, iv)
		}
	}

	p := make([]float64, c.Samples)
	level := c.Baseline
	for i := range p {
		level += delta[i]
		p[i] = level + noise.Rand()
	}

	s, err := model.NewSeries(tm, p)
	if err != nil {
		return Record{}, err
	}
	return Record{Series: s, Truth: truth}, nil
}

// Batch generates count records from base, shifting every event by a seeded
// random offset of up to jitter samples in either direction. Records whose
// shifted events would not fit keep the unshifted layout.
func Batch(base Config, count, jitter int) ([]Record, error) {
	if count < 0 || jitter < 0 {
		return nil, fmt.Errorf("%w: count and jitter must not be negative", ErrInvalidConfig)
	}
	rng := rand.New(rand.NewPCG(base.Seed, uint64(count)))

	out := make([]Record, 0, count)
	for i := 0; i < count; i++ {
		c := base
		c.Seed = base.Seed + uint64(i)
		c.Events = make([]Event, len(base.Events))
		copy(c.Events, base.Events)
		if jitter > 0 {
			shift := rng.IntN(2*jitter+1) - jitter
			for j := range c.Events {
				c.Events[j].At += shift
			}
			if c.Validate() != nil {
				copy(c.Events, base.Events)
			}
		}
		rec, err := Generate(c)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
