package wavelet

import "math"

// Morlet is the analytic Morlet wavelet with nondimensional frequency F0.
type Morlet struct {
	F0 float64
}

// Reconstruction constants of the Morlet wavelet for F0 = 6.
const (
	// CDelta is the reconstruction factor used by the inverse transform.
	CDelta = 0.776
	// DeltaJ0 is the decorrelation length in scales used by the scale
	// smoothing window.
	DeltaJ0 = 0.6
)

// NewMorlet returns the standard Morlet wavelet with F0 = 6.
func NewMorlet() Morlet { return Morlet{F0: 6} }

// FourierWavelength returns the ratio between Fourier period and scale.
func (m Morlet) FourierWavelength() float64 {
	return 4 * math.Pi / (m.F0 + math.Sqrt(2+m.F0*m.F0))
}

// PsiFT is the Fourier transform of the wavelet at angular frequency f.
func (m Morlet) PsiFT(f float64) float64 {
	d := f - m.F0
	return math.Pow(math.Pi, -0.25) * math.Exp(-0.5*d*d)
}

// Psi0 is the wavelet value at t = 0.
func (m Morlet) Psi0() float64 { return math.Pow(math.Pi, -0.25) }

// COIFactor is the e-folding time factor of the cone of influence.
func (Morlet) COIFactor() float64 { return 1 / math.Sqrt2 }
