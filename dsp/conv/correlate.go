package conv

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/dsp/spectrum"
	"gonum.org/v1/gonum/floats"
)

// CorrelateMode computes cross-correlation with specified output mode.
// For equal lengths N, ModeSame covers lags -N/2 ... N-1-N/2.
func CorrelateMode(a, b []float64, mode Mode) ([]float64, error) {
	full, err := CorrelateFFT(a, b)
	if err != nil {
		return nil, err
	}

	return trimToMode(full, len(a), len(b), mode), nil
}

// CorrelateFFT computes the full cross-correlation of a and b using FFT.
// The result has length len(a) + len(b) - 1. Output index k corresponds to
// lag k - (len(b) - 1), and the value at lag l is sum_n a[n+l] * b[n].
func CorrelateFFT(a, b []float64) ([]float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrEmptyInput
	}

	n := len(a)
	m := len(b)
	plan, err := spectrum.NewPlan(core.NextPowerOf2(n + m - 1))
	if err != nil {
		return nil, fmt.Errorf("conv: %w", err)
	}
	fftSize := plan.Len()

	aFreq, err := plan.ForwardReal(a)
	if err != nil {
		return nil, fmt.Errorf("conv: %w", err)
	}
	bFreq, err := plan.ForwardReal(b)
	if err != nil {
		return nil, fmt.Errorf("conv: %w", err)
	}

	for i := range aFreq {
		bConj := complex(real(bFreq[i]), -imag(bFreq[i]))
		aFreq[i] *= bConj
	}

	circ, err := plan.InverseReal(aFreq)
	if err != nil {
		return nil, fmt.Errorf("conv: %w", err)
	}

	// Positive lags sit at the front of the circular result, negative lags
	// wrap around to the end.
	result := make([]float64, n+m-1)
	copy(result[m-1:], circ[:n])
	copy(result[:m-1], circ[fftSize-m+1:])

	return result, nil
}

// CorrelateNormalized computes cross-correlation in the given mode scaled
// by the product of the L2 norms of a and b, so values lie in [-1, 1].
func CorrelateNormalized(a, b []float64, mode Mode) ([]float64, error) {
	result, err := CorrelateMode(a, b, mode)
	if err != nil {
		return nil, err
	}

	norm := math.Sqrt(floats.Dot(a, a) * floats.Dot(b, b))
	if norm == 0 {
		return result, nil
	}
	floats.Scale(1/norm, result)

	return result, nil
}

// FindPeak finds the index and value of the first maximum in a correlation
// result.
func FindPeak(corr []float64) (index int, value float64) {
	if len(corr) == 0 {
		return -1, 0
	}

	index = 0
	value = corr[0]

	for i, v := range corr {
		if v > value {
			index = i
			value = v
		}
	}

	return index, value
}

// SameLagFromIndex converts a ModeSame index of two length-n inputs to a lag.
func SameLagFromIndex(index, n int) int {
	return index - n/2
}
