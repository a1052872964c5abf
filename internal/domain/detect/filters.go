package detect

import (
	"sort"

	"github.com/okian/welltest/internal/domain/model"
)

// FilterByDuration keeps intervals whose duration is at least minDuration
// and reports how many were dropped.
func FilterByDuration(in []model.Interval, minDuration float64) ([]model.Interval, int) {
	out := make([]model.Interval, 0, len(in))
	for _, iv := range in {
		if iv.Duration() >= minDuration {
			out = append(out, iv)
		}
	}
	return out, len(in) - len(out)
}

// NeedsPadding reports whether the series is sampled more sparsely than
// threshold samples per time unit. The comparison is strict.
func NeedsPadding(s model.Series, threshold float64) bool {
	return s.Density() < threshold
}

// Pad widens every interval by margin on both sides.
func Pad(in []model.Interval, margin float64) []model.Interval {
	out := make([]model.Interval, len(in))
	for i, iv := range in {
		out[i] = model.Interval{Start: iv.Start - margin, End: iv.End + margin}
	}
	return out
}

// MergeOverlapping sorts by start and folds intervals that share a point.
func MergeOverlapping(in []model.Interval) []model.Interval {
	if len(in) == 0 {
		return make([]model.Interval, 0)
	}
	sorted := append([]model.Interval(nil), in...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	out := []model.Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if iv.Overlaps(*last) {
			last.End = max(last.End, iv.End)
			continue
		}
		out = append(out, iv)
	}
	return out
}
