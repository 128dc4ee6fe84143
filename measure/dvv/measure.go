package dvv

import (
	"context"
	"fmt"
	"runtime"

	"github.com/cwbudde/algo-noise/dsp/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Measure runs the configured estimator.
func (e *Estimator) Measure(ref, cur []float64) (Result, error) {
	res := Result{Method: e.cfg.Method}
	switch e.cfg.Method {
	case MethodStretching:
		r, err := e.Stretching(ref, cur)
		if err != nil {
			return res, err
		}
		res.Measurement, res.CC, res.CDP = r.Measurement, r.CC, r.CDP
	case MethodDTW:
		m, err := e.DTW(ref, cur)
		if err != nil {
			return res, err
		}
		res.Measurement = m
	case MethodMWCS:
		m, err := e.MWCS(ref, cur)
		if err != nil {
			return res, err
		}
		res.Measurement = m
	case MethodWCC:
		m, err := e.WCC(ref, cur)
		if err != nil {
			return res, err
		}
		res.Measurement = m
	case MethodWXS, MethodWTS, MethodWTDTW:
		var (
			w   WaveletResult
			err error
		)
		switch e.cfg.Method {
		case MethodWXS:
			w, err = e.WXS(ref, cur)
		case MethodWTS:
			w, err = e.WTS(ref, cur)
		default:
			w, err = e.WTDTW(ref, cur)
		}
		if err != nil {
			return res, err
		}
		res.Measurement, res.PerFrequency = w.Measurement, w.PerFrequency
	default:
		return res, core.Configf("dvv: unknown method %q", e.cfg.Method)
	}
	return res, nil
}

// Pair is a reference and a current trace to compare.
type Pair struct {
	Name string
	Ref  []float64
	Cur  []float64
}

// PairResult is the outcome for one Pair. Err is set when that pair
// failed; other pairs are unaffected.
type PairResult struct {
	Name   string
	Result Result
	Err    error
}

// MeasurePairs measures every pair concurrently with at most workers
// goroutines (GOMAXPROCS when workers <= 0). Results keep the input order.
// The returned error is only set when ctx is canceled.
func (e *Estimator) MeasurePairs(ctx context.Context, pairs []Pair, workers int) ([]PairResult, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]PairResult, len(pairs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range pairs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res, err := e.Measure(p.Ref, p.Cur)
			if err != nil {
				e.logger.Warn("pair measurement failed",
					zap.String("pair", p.Name),
					zap.Error(err))
				err = fmt.Errorf("dvv: pair %q: %w", p.Name, err)
			}
			results[i] = PairResult{Name: p.Name, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
