package model

import (
	"encoding/json"
	"fmt"
)

// Kind names an interval class.
type Kind string

// Interval classes.
const (
	// Recovery is a build-up: pressure rising after a shut-in.
	Recovery Kind = "recovery"
	// Drawdown is pressure falling after flow resumes.
	Drawdown Kind = "drawdown"
)

// Interval is a closed time window [Start, End] on the series time axis.
type Interval struct {
	Start float64
	End   float64
}

// Duration returns End - Start.
func (iv Interval) Duration() float64 { return iv.End - iv.Start }

// Valid reports whether Start <= End.
func (iv Interval) Valid() bool { return iv.Start <= iv.End }

// Overlaps reports whether the two closed intervals share at least one point.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start <= o.End && o.Start <= iv.End
}

// MarshalJSON encodes the interval as [start, end].
func (iv Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{iv.Start, iv.End})
}

// UnmarshalJSON decodes [start, end].
func (iv *Interval) UnmarshalJSON(b []byte) error {
	var pair []float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("%w: interval needs 2 values, got %d", ErrConfiguration, len(pair))
	}
	iv.Start, iv.End = pair[0], pair[1]
	return nil
}

// String renders the interval in the literal list form used by truth files.
func (iv Interval) String() string {
	return fmt.Sprintf("[%g, %g]", iv.Start, iv.End)
}
