// Package regress fits weighted straight lines through the origin, the
// estimator behind every delay-versus-time and phase-versus-frequency fit.
package regress

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-noise/dsp/core"
	"gonum.org/v1/gonum/stat"
)

// ErrLengthMismatch is returned when x, y and weights differ in length.
var ErrLengthMismatch = errors.New("regress: input lengths differ")

// ThroughOrigin fits y = m*x by weighted least squares. Each residual is
// scaled by its weight, so w acts as an inverse standard deviation: the
// fit minimizes sum (w_i (y_i - m x_i))^2. A nil w uses unit weights.
//
// The returned standard error is scaled by the reduced chi-square of the
// fit, sqrt(sum w^2 r^2 / (n-1) / sum w^2 x^2). With a single point the
// slope is exact and the standard error is NaN.
func ThroughOrigin(x, y, w []float64) (slope, stderr float64, err error) {
	if len(x) != len(y) || (w != nil && len(w) != len(x)) {
		return 0, 0, ErrLengthMismatch
	}
	if len(x) == 0 {
		return 0, 0, fmt.Errorf("regress: no points: %w", core.ErrInsufficientData)
	}

	var w2 []float64
	if w != nil {
		w2 = make([]float64, len(w))
		for i, v := range w {
			w2[i] = v * v
		}
	}

	_, slope = stat.LinearRegression(x, y, w2, true)
	if !core.IsFinite(slope) {
		return 0, 0, fmt.Errorf("regress: slope %g: %w", slope, core.ErrDegenerateInput)
	}

	var chi2, sxx float64
	for i := range x {
		wi := 1.0
		if w2 != nil {
			wi = w2[i]
		}
		r := y[i] - slope*x[i]
		chi2 += wi * r * r
		sxx += wi * x[i] * x[i]
	}
	if len(x) < 2 {
		return slope, math.NaN(), nil
	}

	return slope, math.Sqrt(chi2 / float64(len(x)-1) / sxx), nil
}

// FiniteWeights replaces NaN and infinite weights by 1 in place.
func FiniteWeights(w []float64) {
	for i, v := range w {
		if !core.IsFinite(v) {
			w[i] = 1
		}
	}
}
