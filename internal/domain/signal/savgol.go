// Package signal implements the smoothing and differentiation stages that
// run ahead of interval detection.
package signal

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultOrder is the polynomial degree used by the detector.
const DefaultOrder = 3

// SavitzkyGolay smooths y with a local least-squares polynomial of the given
// order fitted over a sliding window of odd length.
//
// Interior samples use the convolution coefficients of the centred fit. The
// first and last window/2 samples are taken from a polynomial fitted to the
// first and last full window respectively, so the output has len(y) samples
// and no padding artefacts.
func SavitzkyGolay(y []float64, window, order int) ([]float64, error) {
	if err := checkWindow(len(y), window, order); err != nil {
		return nil, err
	}

	half := window / 2
	coeffs, err := centreCoefficients(window, order)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(y))
	for i := half; i < len(y)-half; i++ {
		var acc float64
		for k, c := range coeffs {
			acc += c * y[i-half+k]
		}
		out[i] = acc
	}

	if err := fitEdge(out, y, 0, window, order, 0, half); err != nil {
		return nil, err
	}
	if err := fitEdge(out, y, len(y)-window, window, order, window-half, window); err != nil {
		return nil, err
	}
	return out, nil
}

func checkWindow(n, window, order int) error {
	switch {
	case order < 0:
		return fmt.Errorf("%w: polynomial order %d is negative", ErrInvalidWindow, order)
	case window <= 0:
		return fmt.Errorf("%w: window %d must be positive", ErrInvalidWindow, window)
	case window%2 == 0:
		return fmt.Errorf("%w: window %d must be odd", ErrInvalidWindow, window)
	case window <= order:
		return fmt.Errorf("%w: window %d must exceed order %d", ErrInvalidWindow, window, order)
	case window > n:
		return fmt.Errorf("%w: window %d exceeds series length %d", ErrInvalidWindow, window, n)
	}
	return nil
}

// vandermonde builds the window x (order+1) design matrix over positions
// centred on the middle sample.
func vandermonde(window, order int) *mat.Dense {
	half := window / 2
	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		x := float64(i - half)
		p := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, p)
			p *= x
		}
	}
	return a
}

// centreCoefficients returns c such that sum(c[k]*y[k]) is the fitted value
// at the window centre: c = A (AᵀA)⁻¹ e0.
func centreCoefficients(window, order int) ([]float64, error) {
	a := vandermonde(window, order)

	var ata mat.Dense
	ata.Mul(a.T(), a)

	e0 := mat.NewVecDense(order+1, nil)
	e0.SetVec(0, 1)

	var z mat.VecDense
	if err := z.SolveVec(&ata, e0); err != nil {
		return nil, fmt.Errorf("savgol coefficients: %w", err)
	}

	var c mat.VecDense
	c.MulVec(a, &z)
	return c.RawVector().Data, nil
}

// fitEdge fits the polynomial to y[offset:offset+window] and writes its value
// at window positions [from, to) into out.
func fitEdge(out, y []float64, offset, window, order, from, to int) error {
	a := vandermonde(window, order)
	b := mat.NewDense(window, 1, append([]float64(nil), y[offset:offset+window]...))

	var p mat.Dense
	if err := p.Solve(a, b); err != nil {
		return fmt.Errorf("savgol edge fit: %w", err)
	}

	half := window / 2
	for i := from; i < to; i++ {
		x := float64(i - half)
		// Horner
		v := 0.0
		for j := order; j >= 0; j-- {
			v = v*x + p.At(j, 0)
		}
		out[offset+i] = v
	}
	return nil
}
