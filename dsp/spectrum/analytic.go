package spectrum

import (
	"github.com/cwbudde/algo-noise/dsp/core"
)

// Analytic returns the analytic signal x + iH{x} of x. The transform runs on
// the next power of two >= len(x) and the result is trimmed back to len(x).
func Analytic(x []float64) ([]complex128, error) {
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}

	n := core.NextPowerOf2(len(x))
	plan, err := NewPlan(n)
	if err != nil {
		return nil, err
	}

	spec, err := plan.ForwardReal(x)
	if err != nil {
		return nil, err
	}

	// One-sided spectrum: keep DC and Nyquist, double positive bins.
	for k := 1; k < n; k++ {
		switch {
		case k < n/2:
			spec[k] *= 2
		case k > n/2:
			spec[k] = 0
		}
	}

	full := make([]complex128, n)
	if err := plan.Inverse(full, spec); err != nil {
		return nil, err
	}
	return full[:len(x)], nil
}
