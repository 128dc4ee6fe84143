package dvv

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-noise/dsp/signal"
	"github.com/cwbudde/algo-noise/dsp/wavelet"
	"github.com/cwbudde/algo-noise/stats/descriptive"
	"github.com/cwbudde/algo-noise/stats/regress"
)

// CoherenceEstimator computes the wavelet coherence of two traces. Its
// phase must be positive where cur lags ref.
type CoherenceEstimator interface {
	Coherence(ref, cur []float64, cfg wavelet.Config, normalize bool) (*wavelet.Coherence, error)
}

// WaveletCoherence is the default CoherenceEstimator, a Morlet wavelet
// coherence with scale and time smoothing.
type WaveletCoherence struct{}

// Coherence implements CoherenceEstimator.
func (WaveletCoherence) Coherence(ref, cur []float64, cfg wavelet.Config, normalize bool) (*wavelet.Coherence, error) {
	return wavelet.WaveletCoherence(ref, cur, cfg, normalize)
}

// WaveletResult is either a band estimate or, in all-frequency mode, one
// estimate per wavelet frequency.
type WaveletResult struct {
	Measurement
	PerFrequency *FrequencyMeasurement
}

// WXS measures dv/v from the phase of the wavelet cross spectrum. In band
// mode a delay is fitted across the band frequencies at every sample and
// the delays are regressed against lapse time, weighted by the mean
// coherence. Samples whose phase fit fails are left out. In all-frequency mode every frequency's phase delay is
// regressed against lapse time on its own.
func (e *Estimator) WXS(ref, cur []float64) (WaveletResult, error) {
	if err := checkPair(ref, cur); err != nil {
		return WaveletResult{}, err
	}
	coh, err := e.cfg.Coherence.Coherence(ref, cur, e.waveletConfig(), true)
	if err != nil {
		return WaveletResult{}, fmt.Errorf("dvv: %w", err)
	}
	if e.cfg.Unwrap {
		coh.UnwrapPhase()
	}
	idx, err := wavelet.BandIndices(coh.Freqs, e.cfg.Params.Band.FMin, e.cfg.Params.Band.FMax)
	if err != nil {
		return WaveletResult{}, fmt.Errorf("dvv: %w", err)
	}

	n := len(ref)
	t := e.times(n)
	if e.cfg.AllFrequencies {
		return WaveletResult{PerFrequency: e.wxsPerFrequency(coh, idx, t)}, nil
	}

	omega := make([]float64, len(idx))
	for i, j := range idx {
		omega[i] = 2 * math.Pi * coh.Freqs[j]
	}
	mean := coh.MeanWCT(idx)
	phase := make([]float64, len(idx))
	w := make([]float64, len(idx))
	var times, delays, w2 []float64
	for it := range n {
		for i, j := range idx {
			phase[i] = coh.Phase[j][it]
			w[i] = 1 / coh.WCT[j][it]
		}
		regress.FiniteWeights(w)
		m, _, err := regress.ThroughOrigin(omega, phase, w)
		if err != nil {
			continue
		}
		times = append(times, t[it])
		delays = append(delays, m)
		w2 = append(w2, 1/mean[it])
	}

	if len(times) <= 2 {
		e.tooFew(MethodWXS, len(times))
		return WaveletResult{}, nil
	}
	regress.FiniteWeights(w2)

	m, em, err := regress.ThroughOrigin(times, delays, w2)
	if err != nil {
		return WaveletResult{}, fmt.Errorf("dvv: %w", err)
	}
	return WaveletResult{Measurement: Measurement{DvV: -100 * m, Err: 100 * em}}, nil
}

func (e *Estimator) wxsPerFrequency(coh *wavelet.Coherence, idx []int, t []float64) *FrequencyMeasurement {
	fm := newFrequencyMeasurement(coh.Freqs, idx)
	if len(t) <= 2 {
		e.tooFew(MethodWXS, len(t))
		fm.fillNaN()
		return fm
	}

	delays := make([]float64, len(t))
	w := make([]float64, len(t))
	for i, j := range idx {
		omega := 2 * math.Pi * coh.Freqs[j]
		nonzero := false
		for it := range t {
			delays[it] = coh.Phase[j][it] / omega
			w[it] = 1 / coh.WCT[j][it]
			nonzero = nonzero || delays[it] != 0
		}
		if !nonzero {
			continue
		}
		regress.FiniteWeights(w)
		m, em, err := regress.ThroughOrigin(t, delays, w)
		if err != nil {
			fm.DvV[i], fm.Err[i] = math.NaN(), math.NaN()
			continue
		}
		fm.DvV[i], fm.Err[i] = -100*m, 100*em
	}
	return fm
}

// WTS stretches wavelet band reconstructions of the traces. In band mode
// the band is rebuilt with the inverse transform; in all-frequency mode the
// real part of every band scale is stretched separately.
func (e *Estimator) WTS(ref, cur []float64) (WaveletResult, error) {
	bands, err := e.waveletBands(ref, cur, e.cfg.AllFrequencies)
	if err != nil {
		return WaveletResult{}, err
	}
	if !e.cfg.AllFrequencies {
		r, err := e.stretch(bands.ref, bands.cur)
		if err != nil {
			return WaveletResult{}, err
		}
		return WaveletResult{Measurement: r.Measurement}, nil
	}

	fm := newFrequencyMeasurement(bands.freqs, bands.idx)
	for i := range bands.idx {
		r, err := e.stretch(bands.refRows[i], bands.curRows[i])
		if err != nil {
			return WaveletResult{}, fmt.Errorf("dvv: frequency %g Hz: %w", fm.Freqs[i], err)
		}
		fm.DvV[i], fm.Err[i] = r.DvV, r.Err
	}
	return WaveletResult{PerFrequency: fm}, nil
}

// WTDTW warps the real part of every band scale separately. Band mode
// reports the mean over the band.
func (e *Estimator) WTDTW(ref, cur []float64) (WaveletResult, error) {
	bands, err := e.waveletBands(ref, cur, true)
	if err != nil {
		return WaveletResult{}, err
	}

	fm := newFrequencyMeasurement(bands.freqs, bands.idx)
	for i := range bands.idx {
		r, err := e.warp(bands.refRows[i], bands.curRows[i], MethodWTDTW)
		if err != nil {
			return WaveletResult{}, fmt.Errorf("dvv: frequency %g Hz: %w", fm.Freqs[i], err)
		}
		fm.DvV[i], fm.Err[i] = r.DvV, r.Err
	}
	if e.cfg.AllFrequencies {
		return WaveletResult{PerFrequency: fm}, nil
	}
	return WaveletResult{Measurement: Measurement{
		DvV: descriptive.NaNMean(fm.DvV),
		Err: descriptive.NaNMean(fm.Err),
	}}, nil
}

// bandTraces holds the wavelet band decomposition shared by wts and wtdtw.
type bandTraces struct {
	freqs            []float64
	idx              []int
	ref, cur         []float64   // band reconstruction
	refRows, curRows [][]float64 // real part per band scale
}

// waveletBands decomposes both traces. With rows set it fills the per-scale
// rows, otherwise the band reconstructions.
func (e *Estimator) waveletBands(ref, cur []float64, rows bool) (*bandTraces, error) {
	if err := checkPair(ref, cur); err != nil {
		return nil, err
	}
	cfg := e.waveletConfig()
	wr, err := wavelet.CWT(ref, cfg)
	if err != nil {
		return nil, fmt.Errorf("dvv: %w", err)
	}
	wc, err := wavelet.CWT(cur, cfg)
	if err != nil {
		return nil, fmt.Errorf("dvv: %w", err)
	}
	idx, err := wavelet.BandIndices(wr.Freqs, e.cfg.Params.Band.FMin, e.cfg.Params.Band.FMax)
	if err != nil {
		return nil, fmt.Errorf("dvv: %w", err)
	}

	b := &bandTraces{freqs: wr.Freqs, idx: idx}
	if !rows {
		if b.ref, err = e.bandTrace(wr.Inverse(idx)); err != nil {
			return nil, err
		}
		if b.cur, err = e.bandTrace(wc.Inverse(idx)); err != nil {
			return nil, err
		}
		return b, nil
	}
	b.refRows = make([][]float64, len(idx))
	b.curRows = make([][]float64, len(idx))
	for i, j := range idx {
		if b.refRows[i], err = e.bandTrace(wr.Real(j)); err != nil {
			return nil, err
		}
		if b.curRows[i], err = e.bandTrace(wc.Real(j)); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (e *Estimator) bandTrace(x []float64) ([]float64, error) {
	if e.cfg.RawWavelet {
		return x, nil
	}
	if err := signal.ZScore(x); err != nil {
		return nil, fmt.Errorf("dvv: %w", err)
	}
	return x, nil
}

func newFrequencyMeasurement(freqs []float64, idx []int) *FrequencyMeasurement {
	fm := &FrequencyMeasurement{
		Freqs: make([]float64, len(idx)),
		DvV:   make([]float64, len(idx)),
		Err:   make([]float64, len(idx)),
	}
	for i, j := range idx {
		fm.Freqs[i] = freqs[j]
	}
	return fm
}

func (f FrequencyMeasurement) fillNaN() {
	for i := range f.DvV {
		f.DvV[i], f.Err[i] = math.NaN(), math.NaN()
	}
}
