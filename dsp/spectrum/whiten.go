package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-noise/dsp/core"
	"gonum.org/v1/gonum/floats"
)

// DefaultApodization is the number of bins of the cosine ramps on either
// side of the whitening passband.
const DefaultApodization = 100

// Band is a frequency passband in Hz.
type Band struct {
	FreqMin float64 `validate:"gt=0" yaml:"freq_min" json:"freq_min"`
	FreqMax float64 `validate:"gtfield=FreqMin" yaml:"freq_max" json:"freq_max"`
}

// BandWhitener flattens the amplitude of a spectrum inside a passband while
// keeping its phase. Outside the band the spectrum is zeroed, and the band
// edges are joined with cos^2 ramps of Apodization bins.
//
// With SmoothHalfWidth == 0 the passband keeps only phase. Otherwise each
// passband bin is divided by the running mean of the passband amplitude.
type BandWhitener struct {
	Apodization     int
	SmoothHalfWidth int
}

// NewBandWhitener returns a whitener with the default ramp width. A zero
// smoothHalfWidth gives a phase-only whitener.
func NewBandWhitener(smoothHalfWidth int) BandWhitener {
	return BandWhitener{Apodization: DefaultApodization, SmoothHalfWidth: smoothHalfWidth}
}

// Whiten whitens a full-length spectrum of a real signal sampled at dt. The
// result is Hermitian so its inverse transform is real.
func (bw BandWhitener) Whiten(spec []complex128, band Band, dt float64) ([]complex128, error) {
	n := len(spec)
	if n < 4 {
		return nil, ErrEmptyInput
	}
	if dt <= 0 || band.FreqMin >= band.FreqMax {
		return nil, fmt.Errorf("spectrum: %w: invalid band [%g, %g] at dt=%g", core.ErrConfiguration, band.FreqMin, band.FreqMax, dt)
	}

	half := n / 2
	df := 1 / (float64(n) * dt)

	first, last := -1, -1
	for k := 0; k < half; k++ {
		f := float64(k) * df
		if f >= band.FreqMin && f <= band.FreqMax {
			if first < 0 {
				first = k
			}
			last = k
		}
	}
	if first < 0 {
		return nil, fmt.Errorf("spectrum: %w: band [%g, %g] Hz holds no frequency bin", core.ErrConfiguration, band.FreqMin, band.FreqMax)
	}

	napod := bw.Apodization
	if napod < 0 {
		napod = 0
	}
	low := first - napod
	if low <= 0 {
		low = 1
	}
	high := last + napod
	if high > half {
		high = half
	}
	left, right := first, last

	out := make([]complex128, n)

	// Rising ramp [low, left).
	if left > low {
		ramp := linspace(math.Pi/2, math.Pi, left-low)
		for i, k := 0, low; k < left; i, k = i+1, k+1 {
			c := math.Cos(ramp[i])
			out[k] = complex(c*c, 0) * unitPhase(spec[k])
		}
	}

	// Passband [left, right).
	if right > left {
		if bw.SmoothHalfWidth > 0 {
			amp := Magnitude(spec[left:right])
			ma := MovingAverage(amp, bw.SmoothHalfWidth)
			for i, k := 0, left; k < right; i, k = i+1, k+1 {
				if ma[i] == 0 {
					return nil, fmt.Errorf("spectrum: %w: zero smoothed amplitude at bin %d", core.ErrDegenerateInput, k)
				}
				out[k] = spec[k] / complex(ma[i], 0)
			}
		} else {
			for k := left; k < right; k++ {
				out[k] = unitPhase(spec[k])
			}
		}
	}

	// Falling ramp [right, high).
	if high > right {
		ramp := linspace(0, math.Pi/2, high-right)
		for i, k := 0, right; k < high; i, k = i+1, k+1 {
			c := math.Cos(ramp[i])
			out[k] = complex(c*c, 0) * unitPhase(spec[k])
		}
	}

	for k := 1; k < half; k++ {
		out[n-k] = cmplx.Conj(out[k])
	}

	return out, nil
}

func unitPhase(c complex128) complex128 {
	return cmplx.Exp(complex(0, cmplx.Phase(c)))
}

// linspace returns n evenly spaced values over [lo, hi], both inclusive.
func linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}
