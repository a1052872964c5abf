package detect

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/welltest/internal/domain/model"
	"github.com/okian/welltest/internal/domain/signal"
)

// Reason explains why a candidate window was rejected.
type Reason string

// Rejection reasons, also used as metric labels.
const (
	ReasonOutOfRange Reason = "out_of_range"
	ReasonDensity    Reason = "density"
	ReasonNoise      Reason = "noise"
	ReasonDuration   Reason = "duration"
)

// KindStats counts what happened to the candidates of one class.
type KindStats struct {
	Triggers   int `json:"triggers"`
	OutOfRange int `json:"out_of_range"`
	Density    int `json:"density"`
	Noise      int `json:"noise"`
	Duration   int `json:"duration"`
	Accepted   int `json:"accepted"`
}

func (k *KindStats) reject(r Reason) {
	switch r {
	case ReasonOutOfRange:
		k.OutOfRange++
	case ReasonDensity:
		k.Density++
	case ReasonNoise:
		k.Noise++
	case ReasonDuration:
		k.Duration++
	}
}

// Stats summarises one detection call.
type Stats struct {
	Recovery KindStats `json:"recovery"`
	Drawdown KindStats `json:"drawdown"`
}

// Result holds the detected intervals. The lists are in trigger order, may
// overlap and are owned by the caller.
type Result struct {
	Recovery []model.Interval `json:"recovery"`
	Drawdown []model.Interval `json:"drop"`
	// Padded is true when the low-density compensation was applied.
	Padded bool  `json:"padded"`
	Stats  Stats `json:"stats"`
}

// Trace exposes the intermediate arrays for plotting.
type Trace struct {
	Smoothed   []float64 `json:"smoothed"`
	Derivative []float64 `json:"derivative"`
}

// window is a candidate index window. Samples are [start, end) for the
// density and noise checks; the interval spans time[start]..time[end].
type window struct {
	start, end int
}

// Detect finds recovery and drawdown intervals in s.
func Detect(s model.Series, p Params) (Result, error) {
	tr, err := Differentiate(s, p)
	if err != nil {
		return Result{}, err
	}

	var res Result
	n := s.Len()

	recovery := make([]model.Interval, 0)
	drawdown := make([]model.Interval, 0)
	for i, d := range tr.Derivative {
		switch {
		case d > p.Threshold:
			res.Stats.Recovery.Triggers++
			w, err := recoveryWindow(i, n, p)
			if iv, reason := accept(s, w, err, p); reason != "" {
				res.Stats.Recovery.reject(reason)
			} else {
				recovery = append(recovery, iv)
			}
		case d < -p.Threshold:
			res.Stats.Drawdown.Triggers++
			w, err := drawdownWindow(i, n, p)
			if iv, reason := accept(s, w, err, p); reason != "" {
				res.Stats.Drawdown.reject(reason)
			} else {
				drawdown = append(drawdown, iv)
			}
		}
	}

	var dropped int
	recovery, dropped = FilterByDuration(recovery, p.MinRecoveryDuration)
	res.Stats.Recovery.Duration += dropped
	drawdown, dropped = FilterByDuration(drawdown, p.MinDropDuration)
	res.Stats.Drawdown.Duration += dropped

	if p.MergeOverlaps {
		recovery = MergeOverlapping(recovery)
		drawdown = MergeOverlapping(drawdown)
	}

	if NeedsPadding(s, p.LowDensityThreshold) {
		recovery = Pad(recovery, PaddingMargin)
		drawdown = Pad(drawdown, PaddingMargin)
		res.Padded = true
	}

	res.Recovery, res.Drawdown = recovery, drawdown
	res.Stats.Recovery.Accepted = len(recovery)
	res.Stats.Drawdown.Accepted = len(drawdown)
	return res, nil
}

// Differentiate validates inputs and returns the smoothed pressure and its
// derivative with respect to sample index. Pressure is the differentiated
// signal; the time column only maps windows back to hours.
func Differentiate(s model.Series, p Params) (Trace, error) {
	if s.Len() == 0 {
		return Trace{}, model.ErrEmptyInput
	}
	if len(s.Pressure) != len(s.Time) {
		return Trace{}, fmt.Errorf("%w: time has %d samples, pressure has %d",
			model.ErrConfiguration, len(s.Time), len(s.Pressure))
	}
	if err := p.Validate(); err != nil {
		return Trace{}, err
	}

	smoothed, err := signal.SavitzkyGolay(s.Pressure, p.WindowSize, signal.DefaultOrder)
	if err != nil {
		return Trace{}, err
	}
	return Trace{Smoothed: smoothed, Derivative: signal.Gradient(smoothed)}, nil
}

func recoveryWindow(trigger, n int, p Params) (window, error) {
	start := max(0, trigger-p.PeakOffset)
	return bounded(start, start+p.RecoveryDurationPoints, n)
}

func drawdownWindow(trigger, n int, p Params) (window, error) {
	start := max(0, trigger-p.PeakOffset)
	end := start + int(math.Round(dropStretch*float64(trigger-start)))
	return bounded(start, end, n)
}

// bounded returns model.ErrOutOfRange when end is not a valid sample index.
func bounded(start, end, n int) (window, error) {
	if end >= n {
		return window{}, fmt.Errorf("%w: window [%d, %d] in %d samples", model.ErrOutOfRange, start, end, n)
	}
	return window{start: start, end: end}, nil
}

// accept turns a window error into a rejection reason, runs the density and
// noise checks and converts the window to time.
func accept(s model.Series, w window, werr error, p Params) (model.Interval, Reason) {
	switch {
	case errors.Is(werr, model.ErrOutOfRange):
		return model.Interval{}, ReasonOutOfRange
	case !dense(w, p.MinPoints):
		return model.Interval{}, ReasonDensity
	case signal.MaxAbsStep(s.Pressure[w.start:w.end]) > p.NoiseThreshold:
		return model.Interval{}, ReasonNoise
	}
	return model.Interval{Start: s.Time[w.start], End: s.Time[w.end]}, ""
}

func dense(w window, minPoints int) bool {
	if w.start+firstHourSamples > w.end {
		return false
	}
	return w.end-w.start >= minPoints
}
