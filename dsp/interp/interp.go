package interp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// Errors returned by interpolation helpers.
var (
	ErrLengthMismatch = errors.New("interp: abscissa and ordinate lengths differ")
	ErrTooFewPoints   = errors.New("interp: at least two points required")
	ErrNotIncreasing  = errors.New("interp: abscissae must be strictly increasing")
)

// Linear evaluates the piecewise-linear interpolant through (xp, fp) at
// every x and writes the values to dst, which must have len(x) elements.
// Points left of xp[0] take fp[0] and points right of the last abscissa
// take the last ordinate.
func Linear(dst, x, xp, fp []float64) error {
	if len(dst) != len(x) || len(xp) != len(fp) {
		return ErrLengthMismatch
	}
	if len(xp) < 2 {
		return ErrTooFewPoints
	}
	for i := 1; i < len(xp); i++ {
		if !(xp[i] > xp[i-1]) {
			return fmt.Errorf("%w: xp[%d]=%g, xp[%d]=%g", ErrNotIncreasing, i-1, xp[i-1], i, xp[i])
		}
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xp, fp); err != nil {
		return fmt.Errorf("interp: %w", err)
	}
	for i, v := range x {
		dst[i] = pl.Predict(v)
	}
	return nil
}

// Stretch resamples y, sampled at t, onto the axis t*factor. The result is
// y evaluated at times t[i]/factor, so factor > 1 compresses the trace
// towards earlier times.
func Stretch(dst, t, y []float64, factor float64) error {
	if len(t) != len(y) || len(dst) != len(t) {
		return ErrLengthMismatch
	}
	if factor <= 0 {
		return fmt.Errorf("interp: stretch factor must be > 0: %g", factor)
	}

	scaled := make([]float64, len(t))
	for i, v := range t {
		scaled[i] = v * factor
	}
	return Linear(dst, t, scaled, y)
}
