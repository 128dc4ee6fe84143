package wavelet

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-noise/dsp/conv"
	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/dsp/spectrum"
)

// Smooth applies the Morlet smoothing operator to a [scale][time] matrix:
// a Gaussian in time whose width follows each scale, then a boxcar of
// 2*DeltaJ0/dj scales across scales.
func Smooth(w [][]complex128, scales []float64, dt, dj float64) ([][]complex128, error) {
	if len(w) == 0 || len(w[0]) == 0 {
		return nil, ErrEmptyInput
	}
	if len(scales) != len(w) {
		return nil, fmt.Errorf("wavelet: %d scales for %d rows", len(scales), len(w))
	}

	n := len(w[0])
	plan, err := spectrum.NewPlan(core.NextPowerOf2(n))
	if err != nil {
		return nil, fmt.Errorf("wavelet: %w", err)
	}
	nfft := plan.Len()

	k := spectrum.FFTFreq(nfft, 1)
	for i := range k {
		k[i] = 2 * math.Pi * k[i]
		k[i] *= k[i]
	}

	in := make([]complex128, nfft)
	spec := make([]complex128, nfft)
	out := make([]complex128, nfft)
	smoothed := make([][]complex128, len(w))
	for j, row := range w {
		if len(row) != n {
			return nil, fmt.Errorf("wavelet: ragged row %d", j)
		}
		copy(in, row)
		clear(in[n:])
		if err := plan.Forward(spec, in); err != nil {
			return nil, fmt.Errorf("wavelet: %w", err)
		}
		snorm := scales[j] / dt
		for i := range spec {
			spec[i] *= complex(math.Exp(-0.5*snorm*snorm*k[i]), 0)
		}
		if err := plan.Inverse(out, spec); err != nil {
			return nil, fmt.Errorf("wavelet: %w", err)
		}
		smoothed[j] = append([]complex128(nil), out[:n]...)
	}

	win := scaleWindow(dj)
	re := make([]float64, len(w))
	im := make([]float64, len(w))
	for i := 0; i < n; i++ {
		for j := range smoothed {
			re[j] = real(smoothed[j][i])
			im[j] = imag(smoothed[j][i])
		}
		sre, err := conv.ConvolveMode(re, win, conv.ModeSame)
		if err != nil {
			return nil, fmt.Errorf("wavelet: %w", err)
		}
		sim, err := conv.ConvolveMode(im, win, conv.ModeSame)
		if err != nil {
			return nil, fmt.Errorf("wavelet: %w", err)
		}
		for j := range smoothed {
			smoothed[j][i] = complex(sre[j], sim[j])
		}
	}

	return smoothed, nil
}

// scaleWindow is a normalized boxcar with half-weight end points.
func scaleWindow(dj float64) []float64 {
	size := max(core.Round(2*DeltaJ0/dj), 1)
	win := make([]float64, size)
	for i := range win {
		win[i] = 1
	}
	win[0] = 0.5
	win[size-1] = 0.5

	var sum float64
	for _, v := range win {
		sum += v
	}
	for i := range win {
		win[i] /= sum
	}
	return win
}
