package wavelet

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/dsp/spectrum"
)

// ErrEmptyInput is returned for empty traces.
var ErrEmptyInput = errors.New("wavelet: empty input")

// Config selects the scales of a transform. Zero S0 and negative J select
// the defaults s0 = 2*Dt/lambda and J = round(log2(n*Dt/s0)/Dj).
type Config struct {
	Dt float64 `validate:"gt=0"`
	Dj float64 `validate:"gt=0"`
	S0 float64 `validate:"gte=0"`
	J  int
}

// DefaultConfig returns a twelve-voices-per-octave layout for sample
// spacing dt.
func DefaultConfig(dt float64) Config {
	return Config{Dt: dt, Dj: 1.0 / 12, J: -1}
}

// Transform is a continuous wavelet transform of one trace.
type Transform struct {
	Coefs  [][]complex128 // [scale][time]
	Scales []float64
	Freqs  []float64 // Fourier frequency of each scale, Hz
	COI    []float64 // cone of influence per sample, s
	Dt     float64
	Dj     float64

	wavelet Morlet
}

// CWT computes the Morlet wavelet transform of x.
func CWT(x []float64, cfg Config) (*Transform, error) {
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}
	if err := core.Validate(cfg); err != nil {
		return nil, fmt.Errorf("wavelet: %w", err)
	}

	w := NewMorlet()
	n0 := len(x)
	lambda := w.FourierWavelength()

	s0 := cfg.S0
	if s0 == 0 {
		s0 = 2 * cfg.Dt / lambda
	}
	J := cfg.J
	if J < 0 {
		J = core.Round(math.Log2(float64(n0)*cfg.Dt/s0) / cfg.Dj)
	}
	if J < 0 {
		return nil, core.Configf("wavelet: trace of %d samples is shorter than the smallest scale", n0)
	}

	plan, err := spectrum.NewPlan(core.NextPowerOf2(n0))
	if err != nil {
		return nil, fmt.Errorf("wavelet: %w", err)
	}
	nfft := plan.Len()
	xf, err := plan.ForwardReal(x)
	if err != nil {
		return nil, fmt.Errorf("wavelet: %w", err)
	}

	omega := spectrum.FFTFreq(nfft, cfg.Dt)
	for i := range omega {
		omega[i] *= 2 * math.Pi
	}

	t := &Transform{
		Coefs:   make([][]complex128, J+1),
		Scales:  make([]float64, J+1),
		Freqs:   make([]float64, J+1),
		Dt:      cfg.Dt,
		Dj:      cfg.Dj,
		wavelet: w,
	}

	prod := make([]complex128, nfft)
	out := make([]complex128, nfft)
	for j := 0; j <= J; j++ {
		sj := s0 * math.Pow(2, float64(j)*cfg.Dj)
		t.Scales[j] = sj
		t.Freqs[j] = 1 / (lambda * sj)

		norm := math.Sqrt(sj * 2 * math.Pi / cfg.Dt)
		for k, om := range omega {
			prod[k] = xf[k] * complex(norm*w.PsiFT(sj*om), 0)
		}
		if err := plan.Inverse(out, prod); err != nil {
			return nil, fmt.Errorf("wavelet: %w", err)
		}
		t.Coefs[j] = append([]complex128(nil), out[:n0]...)
	}

	t.COI = make([]float64, n0)
	half := float64(n0-1) / 2
	for i := range t.COI {
		t.COI[i] = lambda * w.COIFactor() * cfg.Dt * (float64(n0)/2 - math.Abs(float64(i)-half))
	}

	return t, nil
}

// Len returns the number of time samples.
func (t *Transform) Len() int {
	if len(t.Coefs) == 0 {
		return 0
	}
	return len(t.Coefs[0])
}

// Real returns the real part of the coefficients at scale index j.
func (t *Transform) Real(j int) []float64 {
	row := t.Coefs[j]
	out := make([]float64, len(row))
	for i, c := range row {
		out[i] = real(c)
	}
	return out
}

// Inverse reconstructs the part of the trace carried by the given scale
// indices. A nil selection uses every scale.
func (t *Transform) Inverse(rows []int) []float64 {
	if rows == nil {
		rows = make([]int, len(t.Scales))
		for j := range rows {
			rows[j] = j
		}
	}

	out := make([]float64, t.Len())
	for _, j := range rows {
		inv := 1 / math.Sqrt(t.Scales[j])
		for i, c := range t.Coefs[j] {
			out[i] += real(c) * inv
		}
	}

	scale := t.Dj * math.Sqrt(t.Dt) / (CDelta * t.wavelet.Psi0())
	for i := range out {
		out[i] *= scale
	}
	return out
}

// BandIndices returns the scale indices whose frequency lies in
// [fmin, fmax]. A band reaching above the highest resolved frequency or
// with fmax <= fmin is a configuration error.
func BandIndices(freqs []float64, fmin, fmax float64) ([]int, error) {
	if len(freqs) == 0 {
		return nil, ErrEmptyInput
	}
	top := freqs[0]
	for _, f := range freqs {
		top = math.Max(top, f)
	}
	if fmax > top || fmax <= fmin {
		return nil, core.Configf("wavelet: band [%g, %g] Hz outside resolved range (max %g Hz)", fmin, fmax, top)
	}

	var idx []int
	for j, f := range freqs {
		if f >= fmin && f <= fmax {
			idx = append(idx, j)
		}
	}
	if len(idx) == 0 {
		return nil, core.Configf("wavelet: no scale in band [%g, %g] Hz", fmin, fmax)
	}
	return idx, nil
}
