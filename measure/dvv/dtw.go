package dvv

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-noise/measure/dtw"
	"github.com/cwbudde/algo-noise/stats/regress"
	"go.uber.org/zap"
)

// dtwTrim excludes this fraction of samples at both ends of the warping
// path, where the boundary conditions pin the shifts.
const dtwTrim = 0.05

// DTW warps cur onto ref and regresses the shifts, converted to seconds,
// against lapse time.
func (e *Estimator) DTW(ref, cur []float64) (Measurement, error) {
	if err := checkPair(ref, cur); err != nil {
		return Measurement{}, err
	}
	return e.warp(ref, cur, MethodDTW)
}

func (e *Estimator) warp(ref, cur []float64, method Method) (Measurement, error) {
	shifts, _, err := dtw.Warp(cur, ref, e.cfg.MaxLag, e.cfg.StrainB, e.cfg.Direction, e.cfg.Norm)
	if err != nil {
		return Measurement{}, fmt.Errorf("dvv: %w", err)
	}

	n := len(ref)
	dt := e.cfg.Params.Dt
	t := e.times(n)
	lo := int(math.Ceil(dtwTrim * float64(n)))
	hi := int(math.Floor((1 - dtwTrim) * float64(n)))

	var x, y []float64
	for i := lo; i <= hi && i < n; i++ {
		x = append(x, t[i])
		y = append(y, float64(shifts[i])*dt)
	}
	if len(x) <= 2 {
		e.tooFew(method, len(x))
		return Measurement{}, nil
	}

	m, em, err := regress.ThroughOrigin(x, y, nil)
	if err != nil {
		return Measurement{}, fmt.Errorf("dvv: %w", err)
	}
	return Measurement{DvV: 100 * m, Err: 100 * em}, nil
}

func (e *Estimator) tooFew(method Method, points int) {
	e.logger.Warn("too few points for regression",
		zap.String("method", string(method)),
		zap.Int("points", points))
}
