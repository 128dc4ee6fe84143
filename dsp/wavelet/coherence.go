package wavelet

import (
	"fmt"
	"math/cmplx"

	"github.com/cwbudde/algo-noise/dsp/signal"
	"github.com/cwbudde/algo-noise/dsp/spectrum"
)

// Coherence is the wavelet coherence of two traces.
type Coherence struct {
	WCT   [][]float64 // squared coherence, [scale][time]
	Phase [][]float64 // angle of W1 * conj(W2), radians
	COI   []float64
	Freqs []float64
}

// WaveletCoherence computes the smoothed squared coherence and the cross
// spectrum phase of y1 and y2. With normalize set both traces are
// z-scored first. Phase is positive where y2 lags y1.
func WaveletCoherence(y1, y2 []float64, cfg Config, normalize bool) (*Coherence, error) {
	if len(y1) != len(y2) {
		return nil, fmt.Errorf("wavelet: coherence of traces with %d and %d samples", len(y1), len(y2))
	}

	a, b := y1, y2
	if normalize {
		var err error
		if a, err = signal.ZScored(y1); err != nil {
			return nil, fmt.Errorf("wavelet: %w", err)
		}
		if b, err = signal.ZScored(y2); err != nil {
			return nil, fmt.Errorf("wavelet: %w", err)
		}
	}

	w1, err := CWT(a, cfg)
	if err != nil {
		return nil, err
	}
	w2, err := CWT(b, cfg)
	if err != nil {
		return nil, err
	}

	nscale := len(w1.Scales)
	n := w1.Len()
	p1 := make([][]complex128, nscale)
	p2 := make([][]complex128, nscale)
	x12 := make([][]complex128, nscale)
	for j := range nscale {
		p1[j] = make([]complex128, n)
		p2[j] = make([]complex128, n)
		x12[j] = make([]complex128, n)
		inv := complex(1/w1.Scales[j], 0)
		for i := range n {
			c1, c2 := w1.Coefs[j][i], w2.Coefs[j][i]
			p1[j][i] = complex(real(c1)*real(c1)+imag(c1)*imag(c1), 0) * inv
			p2[j][i] = complex(real(c2)*real(c2)+imag(c2)*imag(c2), 0) * inv
			x12[j][i] = c1 * cmplx.Conj(c2)
		}
	}

	s1, err := Smooth(p1, w1.Scales, w1.Dt, w1.Dj)
	if err != nil {
		return nil, err
	}
	s2, err := Smooth(p2, w1.Scales, w1.Dt, w1.Dj)
	if err != nil {
		return nil, err
	}
	scaled := make([][]complex128, nscale)
	for j := range nscale {
		scaled[j] = make([]complex128, n)
		inv := complex(1/w1.Scales[j], 0)
		for i, c := range x12[j] {
			scaled[j][i] = c * inv
		}
	}
	s12, err := Smooth(scaled, w1.Scales, w1.Dt, w1.Dj)
	if err != nil {
		return nil, err
	}

	coh := &Coherence{
		WCT:   make([][]float64, nscale),
		Phase: make([][]float64, nscale),
		COI:   w1.COI,
		Freqs: w1.Freqs,
	}
	for j := range nscale {
		coh.WCT[j] = make([]float64, n)
		for i := range n {
			m := cmplx.Abs(s12[j][i])
			coh.WCT[j][i] = m * m / (real(s1[j][i]) * real(s2[j][i]))
		}
		coh.Phase[j] = spectrum.Phase(x12[j])
	}
	return coh, nil
}

// UnwrapPhase unwraps every row of the phase matrix along time.
func (c *Coherence) UnwrapPhase() {
	for j, row := range c.Phase {
		c.Phase[j] = spectrum.UnwrapPhase(row)
	}
}

// MeanWCT returns the mean coherence over the given scale rows for each
// time sample.
func (c *Coherence) MeanWCT(rows []int) []float64 {
	if len(rows) == 0 || len(c.WCT) == 0 {
		return nil
	}
	out := make([]float64, len(c.WCT[0]))
	for _, j := range rows {
		for i, v := range c.WCT[j] {
			out[i] += v
		}
	}
	inv := 1 / float64(len(rows))
	for i := range out {
		out[i] *= inv
	}
	return out
}
