package signal

import (
	"gonum.org/v1/gonum/floats"
)

// Gradient differentiates y with respect to sample index: central
// differences inside, one-sided differences at both ends.
func Gradient(y []float64) []float64 {
	n := len(y)
	switch n {
	case 0:
		return nil
	case 1:
		return []float64{0}
	}

	d := make([]float64, n)
	d[0] = y[1] - y[0]
	for i := 1; i < n-1; i++ {
		d[i] = (y[i+1] - y[i-1]) / 2
	}
	d[n-1] = y[n-1] - y[n-2]
	return d
}

// MaxAbsStep returns the largest |y[i+1]-y[i]| over the slice, or 0 when it
// has fewer than two samples.
func MaxAbsStep(y []float64) float64 {
	if len(y) < 2 {
		return 0
	}
	steps := make([]float64, len(y)-1)
	floats.SubTo(steps, y[1:], y[:len(y)-1])
	hi, lo := floats.Max(steps), floats.Min(steps)
	if -lo > hi {
		return -lo
	}
	return hi
}
