// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
)

// Series is a pressure-vs-time record stored column-wise.
// Time is non-decreasing. Callers must not mutate the slices after
// handing a Series to the detector or the scorer.
type Series struct {
	Time     []float64 // hours
	Pressure []float64 // atm
}

// NewSeries validates the columns and builds a Series.
func NewSeries(time, pressure []float64) (Series, error) {
	if len(time) != len(pressure) {
		return Series{}, fmt.Errorf("%w: time has %d samples, pressure has %d",
			ErrConfiguration, len(time), len(pressure))
	}
	if len(time) == 0 {
		return Series{}, ErrEmptyInput
	}
	for i := 1; i < len(time); i++ {
		if time[i] < time[i-1] {
			return Series{}, fmt.Errorf("%w: time decreases at sample %d (%g < %g)",
				ErrConfiguration, i, time[i], time[i-1])
		}
	}
	return Series{Time: time, Pressure: pressure}, nil
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Time) }

// Span returns last minus first timestamp, or 0 for an empty series.
func (s Series) Span() float64 {
	if len(s.Time) == 0 {
		return 0
	}
	return s.Time[len(s.Time)-1] - s.Time[0]
}

// Density is the average number of samples per time unit.
// A series with zero span is infinitely dense.
func (s Series) Density() float64 {
	span := s.Span()
	if span <= 0 {
		return math.Inf(1)
	}
	return float64(s.Len()) / span
}
