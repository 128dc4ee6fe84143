package spectrum

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Errors returned by transform helpers.
var (
	ErrInvalidLength  = errors.New("spectrum: transform length must be a positive power of two")
	ErrLengthMismatch = errors.New("spectrum: buffer length mismatch")
	ErrEmptyInput     = errors.New("spectrum: empty input")
)

// Plan performs forward and inverse transforms of one power-of-two length.
// The inverse is normalized by 1/N. A Plan owns scratch memory and is not
// safe for concurrent use; create one per goroutine.
type Plan struct {
	n    int
	plan *algofft.Plan[complex128]
	buf  []complex128
}

// NewPlan creates a transform plan of length n.
func NewPlan(n int) (*Plan, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}

	return &Plan{
		n:    n,
		plan: plan,
		buf:  make([]complex128, n),
	}, nil
}

// Len returns the transform length.
func (p *Plan) Len() int { return p.n }

// Forward computes the forward transform of src into dst.
func (p *Plan) Forward(dst, src []complex128) error {
	if len(dst) != p.n || len(src) != p.n {
		return ErrLengthMismatch
	}
	if err := p.plan.Forward(dst, src); err != nil {
		return fmt.Errorf("spectrum: forward FFT failed: %w", err)
	}
	return nil
}

// Inverse computes the normalized inverse transform of src into dst.
func (p *Plan) Inverse(dst, src []complex128) error {
	if len(dst) != p.n || len(src) != p.n {
		return ErrLengthMismatch
	}
	if err := p.plan.Inverse(dst, src); err != nil {
		return fmt.Errorf("spectrum: inverse FFT failed: %w", err)
	}
	return nil
}

// ForwardReal returns the spectrum of x zero-padded (or truncated) to the
// plan length.
func (p *Plan) ForwardReal(x []float64) ([]complex128, error) {
	for i := range p.buf {
		if i < len(x) {
			p.buf[i] = complex(x[i], 0)
		} else {
			p.buf[i] = 0
		}
	}

	out := make([]complex128, p.n)
	if err := p.Forward(out, p.buf); err != nil {
		return nil, err
	}
	return out, nil
}

// InverseReal returns the real part of the inverse transform of spec.
func (p *Plan) InverseReal(spec []complex128) ([]float64, error) {
	if err := p.Inverse(p.buf, spec); err != nil {
		return nil, err
	}

	out := make([]float64, p.n)
	for i, c := range p.buf {
		out[i] = real(c)
	}
	return out, nil
}

// FFTFreq returns the sample frequencies of an n-point transform with sample
// spacing d, in the standard order: 0, positive frequencies, then negative
// frequencies.
func FFTFreq(n int, d float64) []float64 {
	if n <= 0 || d <= 0 {
		return nil
	}

	out := make([]float64, n)
	scale := 1 / (float64(n) * d)
	half := (n - 1) / 2
	for i := 0; i <= half; i++ {
		out[i] = float64(i) * scale
	}
	for i := half + 1; i < n; i++ {
		out[i] = float64(i-n) * scale
	}
	return out
}

// FFTShift rotates x so that the zero-lag sample moves from index 0 to
// index len(x)/2.
func FFTShift(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	shift := n / 2
	for i, v := range x {
		out[(i+shift)%n] = v
	}
	return out
}
