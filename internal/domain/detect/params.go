// Package detect locates pressure build-up (recovery) and drawdown intervals
// in a well-test series.
//
// Detection is a pure function of the series and Params: nothing is cached
// between calls, so independent series may be processed concurrently.
package detect

import (
	"fmt"
	"math"

	"github.com/okian/welltest/internal/domain/model"
)

// Default parameter values.
const (
	DefaultWindowSize             = 11
	DefaultThreshold              = 5.0
	DefaultMinPoints              = 20
	DefaultNoiseThreshold         = 10.0
	DefaultMinRecoveryDuration    = 4.0
	DefaultMinDropDuration        = 6.0
	DefaultLowDensityThreshold    = 10.0
	DefaultPeakOffset             = 30
	DefaultRecoveryDurationPoints = 240
)

// Fixed heuristics.
const (
	// PaddingMargin is added on both sides of every interval of a sparse series.
	PaddingMargin = 0.1
	// firstHourSamples is the sample count expected inside the first hour of
	// a window at the nominal ten-minute cadence.
	firstHourSamples = 6
	// dropStretch lengthens a drawdown window relative to its trigger distance.
	dropStretch = 1.1
)

// Params configures one detection call. The zero value is not usable; start
// from DefaultParams.
type Params struct {
	// WindowSize is the odd Savitzky-Golay window length in samples.
	WindowSize int `json:"window_size" koanf:"window_size"`
	// Threshold is the derivative magnitude (pressure per sample) that
	// triggers a candidate.
	Threshold float64 `json:"threshold" koanf:"threshold"`
	// MinPoints is the minimum number of samples inside a candidate window.
	MinPoints int `json:"min_points" koanf:"min_points"`
	// NoiseThreshold caps the absolute pressure jump between adjacent samples.
	NoiseThreshold float64 `json:"noise_threshold" koanf:"noise_threshold"`
	// MinRecoveryDuration and MinDropDuration are minimum interval lengths in
	// time units.
	MinRecoveryDuration float64 `json:"min_recovery_duration" koanf:"min_recovery_duration"`
	MinDropDuration     float64 `json:"min_drop_duration" koanf:"min_drop_duration"`
	// LowDensityThreshold is the samples-per-time-unit rate below which every
	// interval is padded by PaddingMargin.
	LowDensityThreshold float64 `json:"low_density_threshold" koanf:"low_density_threshold"`
	// PeakOffset is how many samples before the trigger a window starts.
	PeakOffset int `json:"peak_offset" koanf:"peak_offset"`
	// RecoveryDurationPoints is the fixed recovery window length in samples.
	RecoveryDurationPoints int `json:"recovery_duration_points" koanf:"recovery_duration_points"`
	// MergeOverlaps folds overlapping intervals of the same class into one.
	// Off by default: adjacent triggers otherwise yield one interval each.
	MergeOverlaps bool `json:"merge_overlaps" koanf:"merge_overlaps"`
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		WindowSize:             DefaultWindowSize,
		Threshold:              DefaultThreshold,
		MinPoints:              DefaultMinPoints,
		NoiseThreshold:         DefaultNoiseThreshold,
		MinRecoveryDuration:    DefaultMinRecoveryDuration,
		MinDropDuration:        DefaultMinDropDuration,
		LowDensityThreshold:    DefaultLowDensityThreshold,
		PeakOffset:             DefaultPeakOffset,
		RecoveryDurationPoints: DefaultRecoveryDurationPoints,
	}
}

// Validate checks parameters that do not depend on the series. Window
// checks against the series length happen in Detect.
func (p Params) Validate() error {
	for name, v := range map[string]float64{
		"threshold":             p.Threshold,
		"noise_threshold":       p.NoiseThreshold,
		"min_recovery_duration": p.MinRecoveryDuration,
		"min_drop_duration":     p.MinDropDuration,
		"low_density_threshold": p.LowDensityThreshold,
	} {
		if math.IsNaN(v) {
			return fmt.Errorf("%w: %s is NaN", model.ErrConfiguration, name)
		}
	}

	switch {
	case p.WindowSize <= 0 || p.WindowSize%2 == 0:
		return fmt.Errorf("%w: window_size %d must be a positive odd integer", model.ErrConfiguration, p.WindowSize)
	case p.Threshold <= 0:
		return fmt.Errorf("%w: threshold %g must be positive", model.ErrConfiguration, p.Threshold)
	case p.MinPoints < 0:
		return fmt.Errorf("%w: min_points %d is negative", model.ErrConfiguration, p.MinPoints)
	case p.NoiseThreshold <= 0:
		return fmt.Errorf("%w: noise_threshold %g must be positive", model.ErrConfiguration, p.NoiseThreshold)
	case p.MinRecoveryDuration < 0 || p.MinDropDuration < 0:
		return fmt.Errorf("%w: minimum durations must not be negative", model.ErrConfiguration)
	case p.LowDensityThreshold < 0:
		return fmt.Errorf("%w: low_density_threshold %g is negative", model.ErrConfiguration, p.LowDensityThreshold)
	case p.PeakOffset < 0:
		return fmt.Errorf("%w: peak_offset %d is negative", model.ErrConfiguration, p.PeakOffset)
	case p.RecoveryDurationPoints <= 0:
		return fmt.Errorf("%w: recovery_duration_points %d must be positive", model.ErrConfiguration, p.RecoveryDurationPoints)
	case p.MinPoints > p.RecoveryDurationPoints:
		return fmt.Errorf("%w: min_points %d can never fit a %d-sample recovery window",
			model.ErrConfiguration, p.MinPoints, p.RecoveryDurationPoints)
	}
	return nil
}
