package dvv

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-noise/dsp/conv"
	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/dsp/signal"
	"github.com/cwbudde/algo-noise/dsp/spectrum"
	"github.com/cwbudde/algo-noise/dsp/window"
	"github.com/cwbudde/algo-noise/stats/regress"
	"go.uber.org/zap"
)

// Moving-window selection thresholds.
const (
	windowTaper   = 0.15
	minCoherence  = 0.65
	maxDelayErr   = 0.1
	maxDelay      = 0.1 // s
	cohSaturation = 0.99
)

// slider cuts detrended, tapered moving windows out of a trace pair.
type slider struct {
	size, step int
	taper      []float64
	centers    []float64
	starts     []int
}

func (e *Estimator) newSlider(n int) (*slider, error) {
	dt := e.cfg.Params.Dt
	size := int(e.cfg.MovingWindow / dt)
	step := int(e.cfg.SlideStep / dt)
	if size > n {
		return nil, core.Configf("dvv: moving window of %d samples exceeds trace of %d", size, n)
	}
	if step < 1 {
		return nil, core.Configf("dvv: slide step %gs is shorter than one sample", e.cfg.SlideStep)
	}
	taper, err := window.CosineTaper(size, windowTaper)
	if err != nil {
		return nil, fmt.Errorf("dvv: %w", err)
	}

	s := &slider{size: size, step: step, taper: taper}
	tmin := e.cfg.Params.Window.TMin
	for k, lo := 0, 0; lo+size <= n; k, lo = k+1, lo+step {
		s.starts = append(s.starts, lo)
		s.centers = append(s.centers, tmin+e.cfg.MovingWindow/2+float64(k)*e.cfg.SlideStep)
	}
	return s, nil
}

// cut returns window k of x, detrended and tapered.
func (s *slider) cut(x []float64, k int) []float64 {
	w := append([]float64(nil), x[s.starts[k]:s.starts[k]+s.size]...)
	signal.Detrend(w)
	for i := range w {
		w[i] *= s.taper[i]
	}
	return w
}

// DelayProfile measures the cross-spectral phase delay of cur against ref
// in every moving window. A positive shift means cur arrives later than
// ref.
func (e *Estimator) DelayProfile(ref, cur []float64) ([]Delay, error) {
	if err := checkPair(ref, cur); err != nil {
		return nil, err
	}
	s, err := e.newSlider(len(ref))
	if err != nil {
		return nil, err
	}

	padd := 4 * core.NextPowerOf2(s.size)
	plan, err := spectrum.NewPlan(padd)
	if err != nil {
		return nil, fmt.Errorf("dvv: %w", err)
	}
	half := padd / 2
	df := 1 / (float64(padd) * e.cfg.Params.Dt)
	band := e.cfg.Params.Band
	var idx []int
	for k := 0; k < half; k++ {
		if f := float64(k) * df; f >= band.FMin && f <= band.FMax {
			idx = append(idx, k)
		}
	}
	if len(idx) < 2 {
		return nil, core.Configf("dvv: band [%g, %g] Hz holds %d cross-spectrum bins", band.FMin, band.FMax, len(idx))
	}

	out := make([]Delay, 0, len(s.starts))
	for k := range s.starts {
		fref, err := plan.ForwardReal(s.cut(ref, k))
		if err != nil {
			return nil, fmt.Errorf("dvv: %w", err)
		}
		fcur, err := plan.ForwardReal(s.cut(cur, k))
		if err != nil {
			return nil, fmt.Errorf("dvv: %w", err)
		}
		d := e.crossSpectrumDelay(fref[:half], fcur[:half], idx, df)
		d.Time = s.centers[k]
		out = append(out, d)
	}
	return out, nil
}

// crossSpectrumDelay fits the unwrapped cross-spectrum phase in the band
// bins idx against angular frequency.
func (e *Estimator) crossSpectrumDelay(fref, fcur []complex128, idx []int, df float64) Delay {
	h := e.cfg.SmoothHalfWin
	x := make([]complex128, len(fref))
	for i := range fref {
		x[i] = fref[i] * cmplx.Conj(fcur[i])
	}
	pref, pcur := spectrum.Power(fref), spectrum.Power(fcur)
	if h > 0 {
		pref = spectrum.Smooth(pref, window.TypeHann, h)
		pcur = spectrum.Smooth(pcur, window.TypeHann, h)
		x = spectrum.SmoothComplex(x, window.TypeHann, h)
	}

	dcs := spectrum.Magnitude(x)
	phi := spectrum.Phase(x)
	phi[0] = 0
	phi = spectrum.UnwrapPhase(phi)

	v := make([]float64, len(idx))
	y := make([]float64, len(idx))
	w := make([]float64, len(idx))
	var mcoh float64
	for i, k := range idx {
		dref, dcur := math.Sqrt(pref[k]), math.Sqrt(pcur[k])
		coh := 0.0
		if dref > 0 && dcur > 0 {
			coh = core.Clamp(dcs[k]/(dref*dcur), 0, 1)
		}
		mcoh += coh

		c := coh
		if c >= cohSaturation {
			c = cohSaturation
		}
		wi := 1 / (1/(c*c) - 1)
		w[i] = math.Sqrt(wi * math.Sqrt(dcs[k]))
		v[i] = 2 * math.Pi * float64(k) * df
		y[i] = phi[k]
	}
	mcoh /= float64(len(idx))

	m, _, err := regress.ThroughOrigin(v, y, w)
	if err != nil {
		return Delay{Shift: math.NaN(), Err: math.NaN(), Coherence: mcoh}
	}

	var res, s2x2, sx2 float64
	for i := range v {
		r := y[i] - m*v[i]
		res += r * r
		s2x2 += v[i] * v[i] * w[i] * w[i]
		sx2 += w[i] * v[i] * v[i]
	}
	em := math.Sqrt(res / float64(len(v)-1) * s2x2 / (sx2 * sx2))
	return Delay{Shift: m, Err: em, Coherence: mcoh}
}

// MWCS regresses the moving-window cross-spectrum delays that pass the
// coherence, error and magnitude thresholds against lapse time.
func (e *Estimator) MWCS(ref, cur []float64) (Measurement, error) {
	delays, err := e.DelayProfile(ref, cur)
	if err != nil {
		return Measurement{}, err
	}

	var t, y, w []float64
	for _, d := range delays {
		if d.Coherence > minCoherence && d.Err < maxDelayErr && math.Abs(d.Shift) < maxDelay {
			t = append(t, d.Time)
			y = append(y, d.Shift)
			w = append(w, 1/d.Err)
		}
	}
	e.logger.Debug("moving windows selected",
		zap.Int("windows", len(delays)),
		zap.Int("kept", len(t)))
	if len(t) <= 2 {
		e.tooFew(MethodMWCS, len(t))
		return Measurement{}, nil
	}
	regress.FiniteWeights(w)

	m, em, err := regress.ThroughOrigin(t, y, w)
	if err != nil {
		return Measurement{}, fmt.Errorf("dvv: %w", err)
	}
	return Measurement{DvV: -100 * m, Err: 100 * em}, nil
}

// WCC regresses the lag of the normalized cross-correlation peak in every
// moving window against lapse time.
func (e *Estimator) WCC(ref, cur []float64) (Measurement, error) {
	if err := checkPair(ref, cur); err != nil {
		return Measurement{}, err
	}
	s, err := e.newSlider(len(ref))
	if err != nil {
		return Measurement{}, err
	}

	dt := e.cfg.Params.Dt
	var t, y []float64
	for k := range s.starts {
		wc, errC := signal.ZScored(s.cut(cur, k))
		wr, errR := signal.ZScored(s.cut(ref, k))
		if errC != nil || errR != nil {
			e.logger.Debug("skipping flat window", zap.Float64("time", s.centers[k]))
			continue
		}
		cc, err := conv.CorrelateNormalized(wc, wr, conv.ModeSame)
		if err != nil {
			return Measurement{}, fmt.Errorf("dvv: %w", err)
		}
		imax, _ := conv.FindPeak(cc)
		t = append(t, s.centers[k])
		y = append(y, float64(conv.SameLagFromIndex(imax, s.size))*dt)
	}
	if len(t) <= 2 {
		e.tooFew(MethodWCC, len(t))
		return Measurement{}, nil
	}

	m, em, err := regress.ThroughOrigin(t, y, nil)
	if err != nil {
		return Measurement{}, fmt.Errorf("dvv: %w", err)
	}
	return Measurement{DvV: -100 * m, Err: 100 * em}, nil
}
