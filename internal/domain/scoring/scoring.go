// Package scoring measures how well detected intervals match annotated ones.
//
// Both lists are projected onto the sample time axis as 0/1 label arrays,
// each interval widened by a time tolerance, and compared with F1.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/welltest/internal/domain/model"
)

// Score returns the F1 of predicted against truth over the time axis of s.
// s.Time must be sorted ascending; this is not re-checked.
func Score(truth, predicted []model.Interval, s model.Series, opts ...Option) (float64, error) {
	o := defaults()
	for _, opt := range opts {
		opt(&o)
	}

	if s.Len() == 0 {
		return 0, model.ErrEmptyInput
	}
	if math.IsNaN(o.tolerance) || o.tolerance < 0 {
		return 0, fmt.Errorf("%w: time tolerance %g", model.ErrConfiguration, o.tolerance)
	}
	if math.IsNaN(o.maeThreshold) || o.maeThreshold < 0 {
		return 0, fmt.Errorf("%w: mae threshold %g", model.ErrConfiguration, o.maeThreshold)
	}

	if o.prefilter && !(o.skipUnpaired && len(truth) != len(predicted)) {
		var err error
		truth, predicted, err = FilterPairs(truth, predicted, o.maeThreshold)
		if err != nil {
			return 0, err
		}
	}

	t := Binarize(truth, s.Time, o.tolerance)
	p := Binarize(predicted, s.Time, o.tolerance)
	return F1(t, p), nil
}

// PositionalError is the mean of the absolute start and end differences.
func PositionalError(a, b model.Interval) float64 {
	return (math.Abs(a.Start-b.Start) + math.Abs(a.End-b.End)) / 2
}

// FilterPairs drops every (truth[i], predicted[i]) pair whose positional
// error exceeds threshold. Equality is kept. The lists must pair up 1:1.
func FilterPairs(truth, predicted []model.Interval, threshold float64) ([]model.Interval, []model.Interval, error) {
	if len(truth) != len(predicted) {
		return nil, nil, fmt.Errorf("%w: cannot pair %d truth intervals with %d predicted",
			model.ErrConfiguration, len(truth), len(predicted))
	}
	keptTruth := make([]model.Interval, 0, len(truth))
	keptPred := make([]model.Interval, 0, len(predicted))
	for i := range truth {
		if PositionalError(truth[i], predicted[i]) > threshold {
			continue
		}
		keptTruth = append(keptTruth, truth[i])
		keptPred = append(keptPred, predicted[i])
	}
	return keptTruth, keptPred, nil
}

// Binarize marks every sample covered by a widened interval. The covered
// range runs from the first sample at or after start-tolerance up to, but
// excluding, the first sample at or after end+tolerance.
func Binarize(intervals []model.Interval, times []float64, tolerance float64) []uint8 {
	labels := make([]uint8, len(times))
	for _, iv := range intervals {
		lo := sort.SearchFloat64s(times, iv.Start-tolerance)
		hi := sort.SearchFloat64s(times, iv.End+tolerance)
		for i := lo; i < hi; i++ {
			labels[i] = 1
		}
	}
	return labels
}

// F1 compares two label arrays of equal length with 1 as the positive
// class. Two all-zero arrays agree perfectly and score 1.
func F1(truth, predicted []uint8) float64 {
	var tp, fp, fn int
	for i := range truth {
		switch {
		case truth[i] == 1 && predicted[i] == 1:
			tp++
		case predicted[i] == 1:
			fp++
		case truth[i] == 1:
			fn++
		}
	}
	if tp+fp+fn == 0 {
		return 1
	}
	return 2 * float64(tp) / float64(2*tp+fp+fn)
}
