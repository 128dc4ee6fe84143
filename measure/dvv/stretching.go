package dvv

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/dsp/interp"
	"github.com/cwbudde/algo-noise/stats/descriptive"
	"gonum.org/v1/gonum/floats"
)

// refinePoints is the size of the second, finer stretch grid.
const refinePoints = 100

// Stretching finds the stretch factor that best maps cur onto ref. A coarse
// grid of NTrial factors spanning +-DvRange locates the maximum, which is
// then refined on a grid spanning the two neighbors on either side.
func (e *Estimator) Stretching(ref, cur []float64) (StretchResult, error) {
	if err := checkPair(ref, cur); err != nil {
		return StretchResult{}, err
	}
	return e.stretch(ref, cur)
}

func (e *Estimator) stretch(ref, cur []float64) (StretchResult, error) {
	n := len(ref)
	t := e.times(n)
	buf := make([]float64, n)

	r := math.Abs(e.cfg.DvRange)
	eps := floats.Span(make([]float64, e.cfg.NTrial), 1-r, 1+r)
	cof, err := stretchScores(ref, cur, t, eps, buf)
	if err != nil {
		return StretchResult{}, err
	}

	imax := descriptive.NaNArgMax(cof)
	if imax < 0 {
		return StretchResult{}, fmt.Errorf("dvv: no finite stretch correlation: %w", core.ErrDegenerateInput)
	}
	if imax >= len(eps)-2 {
		imax -= 2
	}
	if imax <= 2 {
		imax += 2
	}
	// Short grids can push the window past either end.
	imax = min(max(imax, 2), len(eps)-3)

	fine := floats.Span(make([]float64, refinePoints), eps[imax-2], eps[imax+2])
	ncof, err := stretchScores(ref, cur, t, fine, buf)
	if err != nil {
		return StretchResult{}, err
	}
	best := descriptive.NaNArgMax(ncof)
	if best < 0 {
		return StretchResult{}, fmt.Errorf("dvv: no finite stretch correlation: %w", core.ErrDegenerateInput)
	}

	cc := ncof[best]
	return StretchResult{
		Measurement: Measurement{
			DvV: 100*fine[best] - 100,
			Err: e.stretchError(cc),
		},
		CC:  cc,
		CDP: descriptive.Pearson(cur, ref),
	}, nil
}

// stretchScores correlates ref with cur resampled on every trial axis.
func stretchScores(ref, cur, t, factors, buf []float64) ([]float64, error) {
	out := make([]float64, len(factors))
	for i, f := range factors {
		if err := interp.Stretch(buf, t, cur, f); err != nil {
			return nil, fmt.Errorf("dvv: %w", err)
		}
		out[i] = descriptive.Pearson(ref, buf)
	}
	return out, nil
}

// stretchError is the theoretical standard error of the stretching
// estimate for a correlation cc over the configured band and window.
func (e *Estimator) stretchError(cc float64) float64 {
	p := e.cfg.Params
	T := 1 / (p.Band.FMax - p.Band.FMin)
	wc := math.Pi * (p.Band.FMin + p.Band.FMax)
	t1 := math.Min(p.Window.TMin, p.Window.TMax)
	t2 := math.Max(p.Window.TMin, p.Window.TMax)
	return 100 * math.Sqrt(math.Max(0, 1-cc*cc)) / (2 * cc) *
		math.Sqrt(6*math.Sqrt(math.Pi/2)*T/(wc*wc*(t2*t2*t2-t1*t1*t1)))
}
