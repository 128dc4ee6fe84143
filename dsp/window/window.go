package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	// TypeRectangular is the boxcar window used by flat moving averages.
	TypeRectangular Type = iota
	// TypeHann is the raised-cosine window, zero at both ends.
	TypeHann
)

// Generate returns symmetric window coefficients of the given length.
func Generate(t Type, length int) []float64 {
	if length <= 0 {
		return nil
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = evalWindow(t, samplePosition(i, length))
	}

	return out
}

// CosineTaper returns a taper of size samples whose two cosine edges together
// span the fraction p of the window. Each edge covers int(size*p/2 + 0.5)
// samples and rises from exactly 0 to exactly 1, as in the taper commonly
// used for seismic moving-window analysis.
func CosineTaper(size int, p float64) ([]float64, error) {
	if size <= 0 || p < 0 || p > 1 {
		return nil, validateTaper(size, p)
	}

	out := make([]float64, size)
	for i := range out {
		out[i] = 1
	}

	frac := int(float64(size)*p/2 + 0.5)
	if frac <= 1 {
		if frac == 1 {
			out[0] = 0
			out[size-1] = 0
		}
		return out, nil
	}

	idx2 := frac - 1
	idx3 := size - frac
	idx4 := size - 1

	for i := 0; i <= idx2; i++ {
		out[i] = 0.5 * (1 - math.Cos(math.Pi*float64(i)/float64(idx2)))
	}
	for i := idx3; i <= idx4; i++ {
		out[i] = 0.5 * (1 + math.Cos(math.Pi*float64(idx3-i)/float64(idx4-idx3)))
	}

	return out, nil
}

// EdgeTaper returns a window that is flat except for Hann-shaped edges of
// min(int(size*fraction), maxLen) samples on each side. A maxLen <= 0 removes
// the cap.
func EdgeTaper(size int, fraction float64, maxLen int) ([]float64, error) {
	if size <= 0 || fraction < 0 || fraction > 0.5 {
		return nil, validateTaper(size, 2*fraction)
	}

	wlen := int(float64(size) * fraction)
	if maxLen > 0 && wlen > maxLen {
		wlen = maxLen
	}

	out := make([]float64, size)
	for i := range out {
		out[i] = 1
	}
	if wlen == 0 {
		return out, nil
	}

	// Edges are the two halves of a symmetric Hann window of 2*wlen+1 points.
	den := float64(2 * wlen)
	for i := 0; i < wlen; i++ {
		out[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/den)
		k := wlen + 1 + i
		out[size-wlen+i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(k)/den)
	}

	return out, nil
}

// ApplyCoefficientsInPlace multiplies samples with coefficients in place.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return errMismatchedLength
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}

func evalWindow(t Type, x float64) float64 {
	if x < 0 {
		x = 0
	}

	if x > 1 {
		x = 1
	}

	if t == TypeHann {
		return hannAt(x)
	}
	return 1
}

func hannAt(x float64) float64 {
	return 0.5 - 0.5*math.Cos(2*math.Pi*x)
}

func samplePosition(n, size int) float64 {
	if size <= 1 {
		return 0
	}

	return float64(n) / float64(size-1)
}
