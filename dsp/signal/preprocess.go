package signal

import (
	"fmt"

	"github.com/cwbudde/algo-noise/dsp/core"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Demean subtracts the arithmetic mean from x in place.
func Demean(x []float64) {
	if len(x) == 0 {
		return
	}
	floats.AddConst(-stat.Mean(x, nil), x)
}

// Detrend removes the least-squares line from x in place. Traces shorter
// than two samples are only demeaned.
func Detrend(x []float64) {
	if len(x) < 2 {
		Demean(x)
		return
	}

	idx := make([]float64, len(x))
	for i := range idx {
		idx[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(idx, x, nil, false)
	for i := range x {
		x[i] -= alpha + beta*idx[i]
	}
}

// ZScore standardizes x in place to zero mean and unit population standard
// deviation.
func ZScore(x []float64) error {
	if len(x) == 0 {
		return fmt.Errorf("signal: z-score of empty trace: %w", core.ErrInsufficientData)
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	if std == 0 || !core.IsFinite(std) {
		return fmt.Errorf("signal: z-score std=%g: %w", std, core.ErrDegenerateInput)
	}
	for i := range x {
		x[i] = (x[i] - mean) / std
	}
	return nil
}

// ZScored returns a standardized copy of x.
func ZScored(x []float64) ([]float64, error) {
	out := append([]float64(nil), x...)
	if err := ZScore(out); err != nil {
		return nil, err
	}
	return out, nil
}
