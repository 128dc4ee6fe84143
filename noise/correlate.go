package noise

import (
	"fmt"
	"math/cmplx"
	"slices"
	"time"

	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/dsp/spectrum"
	"github.com/cwbudde/algo-noise/stack"
	"github.com/cwbudde/algo-noise/stats/descriptive"
	"go.uber.org/zap"
)

// CorrelateConfig configures a Correlator. Times are in seconds.
type CorrelateConfig struct {
	Dt     float64  `validate:"gt=0" yaml:"dt"`
	MaxLag float64  `validate:"gt=0" yaml:"maxlag"`
	Method CCMethod `validate:"oneof=xcorr deconv coherency" yaml:"cc_method"`
	// SegmentLength is the segment duration; a SubstackLength equal to it
	// keeps one row per segment.
	SegmentLength  float64 `validate:"gt=0" yaml:"cc_len"`
	Substack       bool    `yaml:"substack"`
	SubstackLength float64 `validate:"required_if=Substack true,gte=0" yaml:"substack_len"`
	// SmoothHalfWidth is the half-width in bins of the receiver amplitude
	// running mean used by coherency.
	SmoothHalfWidth int `validate:"gte=0" yaml:"smoothspect_n"`
	// StackMethod combines per-segment rows in CorrelateNonlinear when
	// sub-stacking is off: linear (default) or robust.
	StackMethod     stack.Method `validate:"omitempty,oneof=linear robust" yaml:"stack_method"`
	RobustTolerance float64      `validate:"gte=0" yaml:"robust_tolerance"`

	// Robust overrides the default stack.PavlisVernon estimator.
	Robust stack.RobustStacker `validate:"-" yaml:"-"`
}

// Correlator forms cross-spectra between source and receiver segments and
// returns them as time-domain CCFs.
type Correlator struct {
	cfg    CorrelateConfig
	nlag   int
	logger *zap.Logger
}

// NewCorrelator validates cfg and returns a Correlator.
func NewCorrelator(cfg CorrelateConfig, opts ...core.ProcessorOption) (*Correlator, error) {
	if cfg.StackMethod == "" {
		cfg.StackMethod = stack.MethodLinear
	}
	if cfg.RobustTolerance == 0 {
		cfg.RobustTolerance = stack.DefaultRobustTolerance
	}
	if err := core.Validate(cfg); err != nil {
		return nil, fmt.Errorf("noise: correlator: %w", err)
	}
	if cfg.Robust == nil {
		cfg.Robust = stack.PavlisVernon{}
	}

	pc := core.ApplyProcessorOptions(opts...)
	return &Correlator{
		cfg:    cfg,
		nlag:   lagCount(cfg.MaxLag, cfg.Dt),
		logger: pc.Logger.Named("correlator"),
	}, nil
}

// Config returns the correlator configuration.
func (c *Correlator) Config() CorrelateConfig { return c.cfg }

// Correlate multiplies every source row (from SmoothSourceSpectrum) with
// the positive half of the matching receiver spectrum and transforms the
// result back to a CCF trimmed to |lag| <= MaxLag.
//
// Without sub-stacking, segments whose peak cross-spectral amplitude fails
// the outlier rule are dropped and the rest averaged into one row. With
// sub-stacking, rows are either kept per segment or averaged over
// SubstackLength time bins, and the outlier rule then runs on the
// time-domain rows. A batch without survivors yields an empty CCF and no
// error.
func (c *Correlator) Correlate(source [][]complex128, receiver SpectrumMatrix, times []time.Time) (CCF, error) {
	corr, inv, err := c.crossSpectra(source, receiver, times)
	if err != nil {
		return CCF{}, err
	}
	out := c.result()

	if !c.cfg.Substack {
		peaks := make([]float64, len(corr))
		for i, row := range corr {
			peaks[i] = maxModulus(row)
		}
		keep := stack.Keep(peaks)
		if len(keep) == 0 {
			c.logger.Warn("no segment passed the outlier rule", zap.Int("segments", len(corr)))
			return out, nil
		}
		picked := make([][]complex128, len(keep))
		for k, i := range keep {
			picked[k] = corr[i]
		}
		row, err := inv.toTime(meanSpectrum(picked))
		if err != nil {
			return CCF{}, err
		}
		out.Data = [][]float64{c.trim(row)}
		out.NGood = []int{len(keep)}
		out.Times = []time.Time{times[0]}
		return out, nil
	}

	var rows [][]float64
	var rowTimes []time.Time
	var ngood []int
	if c.perSegment() {
		rows = make([][]float64, len(corr))
		for i, spec := range corr {
			if rows[i], err = inv.toTime(spec); err != nil {
				return CCF{}, err
			}
		}
		rowTimes = times
		ngood = fill(len(rows), 1)
	} else {
		rows, rowTimes, ngood, err = c.bin(corr, times, inv)
		if err != nil {
			return CCF{}, err
		}
	}

	c.keepRows(&out, rows, rowTimes, ngood)
	return out, nil
}

// CorrelateNonlinear inverse-transforms every segment separately. Besides
// the CCF it returns the trimmed per-segment rows, each scaled to unit peak
// absolute amplitude. Without sub-stacking the rows are combined with
// StackMethod: linear averages the outlier survivors, robust hands all rows
// to the robust stacker.
func (c *Correlator) CorrelateNonlinear(source [][]complex128, receiver SpectrumMatrix, times []time.Time) (CCF, [][]float64, error) {
	corr, inv, err := c.crossSpectra(source, receiver, times)
	if err != nil {
		return CCF{}, nil, err
	}

	rows := make([][]float64, len(corr))
	normalized := make([][]float64, len(corr))
	for i, spec := range corr {
		if rows[i], err = inv.toTime(spec); err != nil {
			return CCF{}, nil, err
		}
		norm := c.trim(rows[i])
		if peak := descriptive.MaxAbs(rows[i]); peak > 0 {
			for j := range norm {
				norm[j] /= peak
			}
		}
		normalized[i] = norm
	}

	out := c.result()
	switch {
	case c.cfg.Substack && c.perSegment():
		c.keepRows(&out, rows, times, fill(len(rows), 1))
	case c.cfg.Substack:
		binned, binTimes, ngood, err := c.bin(corr, times, inv)
		if err != nil {
			return CCF{}, nil, err
		}
		c.keepRows(&out, binned, binTimes, ngood)
	case c.cfg.StackMethod == stack.MethodRobust:
		rob, err := c.cfg.Robust.RobustStack(rows, c.cfg.RobustTolerance)
		if err != nil {
			return CCF{}, nil, fmt.Errorf("noise: robust combination: %w", err)
		}
		c.logger.Debug("robust combination", zap.Int("iterations", rob.Iterations))
		out.Data = [][]float64{c.trim(rob.Stack)}
		out.NGood = []int{len(rows)}
		out.Times = []time.Time{times[0]}
	default:
		keep := stack.Keep(stack.Peaks(rows))
		if len(keep) == 0 {
			c.logger.Warn("no segment passed the outlier rule", zap.Int("segments", len(rows)))
			return out, normalized, nil
		}
		picked := make([][]float64, len(keep))
		for k, i := range keep {
			picked[k] = rows[i]
		}
		out.Data = [][]float64{c.trim(stack.Mean(picked))}
		out.NGood = []int{len(keep)}
		out.Times = []time.Time{times[0]}
	}
	return out, normalized, nil
}

func (c *Correlator) result() CCF {
	return CCF{
		Lags:     LagAxis(c.cfg.MaxLag, c.cfg.Dt),
		Dt:       c.cfg.Dt,
		MaxLag:   c.cfg.MaxLag,
		Method:   c.cfg.Method,
		Substack: c.cfg.Substack,
	}
}

func (c *Correlator) perSegment() bool {
	return c.cfg.SubstackLength == c.cfg.SegmentLength
}

// crossSpectra checks the operands and returns the per-segment half
// cross-spectra together with an inverse transformer for them.
func (c *Correlator) crossSpectra(source [][]complex128, receiver SpectrumMatrix, times []time.Time) ([][]complex128, *inverter, error) {
	nwin := len(source)
	if nwin == 0 {
		return nil, nil, fmt.Errorf("noise: correlate: no segment: %w", core.ErrInsufficientData)
	}
	if receiver.Len() != nwin || len(times) != nwin {
		return nil, nil, fmt.Errorf("noise: correlate: %d source rows, %d receiver rows, %d times",
			nwin, receiver.Len(), len(times))
	}
	half := receiver.NFFT / 2
	if c.nlag > half-1 {
		return nil, nil, core.Configf("noise: maxlag %gs exceeds the %d-point transform at dt=%g",
			c.cfg.MaxLag, receiver.NFFT, c.cfg.Dt)
	}

	corr := make([][]complex128, nwin)
	for i, src := range source {
		rcv := receiver.Spectra[i]
		if len(src) != half || len(rcv) < half {
			return nil, nil, fmt.Errorf("noise: segment %d: source has %d bins, receiver %d, want %d and %d",
				i, len(src), len(rcv), half, receiver.NFFT)
		}
		row := make([]complex128, half)
		for k := range row {
			row[k] = src[k] * rcv[k]
		}
		if c.cfg.Method == MethodCoherency {
			ma := spectrum.MovingAverage(spectrum.Magnitude(rcv[:half]), c.cfg.SmoothHalfWidth)
			for k, a := range ma {
				if a == 0 {
					return nil, nil, fmt.Errorf("noise: smoothed receiver amplitude is zero at bin %d of segment %d: %w",
						k, i, core.ErrDegenerateInput)
				}
				row[k] /= complex(a, 0)
			}
		}
		corr[i] = row
	}

	inv, err := newInverter(receiver.NFFT)
	if err != nil {
		return nil, nil, err
	}
	return corr, inv, nil
}

// bin averages cross-spectra over [t0+k*L, t0+(k+1)*L). Empty bins are
// skipped.
func (c *Correlator) bin(corr [][]complex128, times []time.Time, inv *inverter) ([][]float64, []time.Time, []int, error) {
	width := time.Duration(c.cfg.SubstackLength * float64(time.Second))
	total := times[len(times)-1].Sub(times[0])
	nstack := max(1, core.Round(total.Seconds()/c.cfg.SubstackLength))

	var rows [][]float64
	var binTimes []time.Time
	var ngood []int
	tstart := times[0]
	for range nstack {
		var members [][]complex128
		for i, t := range times {
			if !t.Before(tstart) && t.Before(tstart.Add(width)) {
				members = append(members, corr[i])
			}
		}
		if len(members) == 0 {
			c.logger.Debug("empty sub-stack window skipped", zap.Time("start", tstart))
			tstart = tstart.Add(width)
			continue
		}
		row, err := inv.toTime(meanSpectrum(members))
		if err != nil {
			return nil, nil, nil, err
		}
		rows = append(rows, row)
		binTimes = append(binTimes, tstart)
		ngood = append(ngood, len(members))
		tstart = tstart.Add(width)
	}
	return rows, binTimes, ngood, nil
}

// keepRows applies the outlier rule to full-length rows and stores the
// trimmed survivors in out.
func (c *Correlator) keepRows(out *CCF, rows [][]float64, times []time.Time, ngood []int) {
	keep := stack.Keep(stack.Peaks(rows))
	if len(keep) == 0 {
		c.logger.Warn("no sub-stack passed the outlier rule", zap.Int("rows", len(rows)))
		return
	}
	if dropped := len(rows) - len(keep); dropped > 0 {
		c.logger.Debug("outlier sub-stacks dropped", zap.Int("dropped", dropped))
	}
	out.Data = make([][]float64, len(keep))
	out.Times = make([]time.Time, len(keep))
	out.NGood = make([]int, len(keep))
	for k, i := range keep {
		out.Data[k] = c.trim(rows[i])
		out.Times[k] = times[i]
		out.NGood[k] = ngood[i]
	}
}

// trim returns a copy of the centered samples with |lag| <= nlag. row is
// fftshifted, so zero lag sits at len(row)/2.
func (c *Correlator) trim(row []float64) []float64 {
	mid := len(row) / 2
	return slices.Clone(row[mid-c.nlag : mid+c.nlag+1])
}

// inverter turns half cross-spectra into real, zero-lag-centered rows.
type inverter struct {
	plan *spectrum.Plan
	full []complex128
}

func newInverter(nfft int) (*inverter, error) {
	plan, err := spectrum.NewPlan(nfft)
	if err != nil {
		return nil, fmt.Errorf("noise: %w", err)
	}
	return &inverter{plan: plan, full: make([]complex128, nfft)}, nil
}

// toTime removes the spectral mean, zeroes the DC and Nyquist bins, mirrors
// the half spectrum into a Hermitian one and returns the fftshifted real
// part of its inverse transform.
func (inv *inverter) toTime(half []complex128) ([]float64, error) {
	n := inv.plan.Len()
	mean := spectrum.MeanComplex(half)
	clear(inv.full)
	for k := 1; k < len(half); k++ {
		v := half[k] - mean
		inv.full[k] = v
		inv.full[n-k] = cmplx.Conj(v)
	}

	row, err := inv.plan.InverseReal(inv.full)
	if err != nil {
		return nil, fmt.Errorf("noise: %w", err)
	}
	return spectrum.FFTShift(row), nil
}

func meanSpectrum(rows [][]complex128) []complex128 {
	out := make([]complex128, len(rows[0]))
	for _, r := range rows {
		for k, v := range r {
			out[k] += v
		}
	}
	inv := complex(1/float64(len(rows)), 0)
	for k := range out {
		out[k] *= inv
	}
	return out
}

func maxModulus(x []complex128) float64 {
	peak := 0.0
	for _, v := range x {
		if a := cmplx.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

func fill(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}
