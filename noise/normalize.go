package noise

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/dsp/spectrum"
	"go.uber.org/zap"
)

// Whitener flattens a full-length spectrum inside band. Implementations
// must return a spectrum whose inverse transform is real.
type Whitener interface {
	Whiten(spec []complex128, band spectrum.Band, dt float64) ([]complex128, error)
}

// NormalizeConfig configures a Normalizer.
type NormalizeConfig struct {
	SampleRate float64  `validate:"gt=0" yaml:"sample_rate"`
	TimeNorm   TimeNorm `validate:"oneof=none one_bit running_mean" yaml:"time_norm"`
	FreqNorm   FreqNorm `validate:"oneof=none whiten" yaml:"freq_norm"`
	// SmoothHalfWidth is the half-width in samples of the running-mean
	// window.
	SmoothHalfWidth int `validate:"gte=0" yaml:"smooth_n"`
	// WhitenSmoothHalfWidth switches the default whitener from phase only
	// to division by a running mean of the passband amplitude over
	// 2*WhitenSmoothHalfWidth+1 bins.
	WhitenSmoothHalfWidth int `validate:"gte=0" yaml:"whiten_smooth_n"`
	// Band is the whitening passband, checked only when FreqNorm is whiten.
	Band spectrum.Band `validate:"-" yaml:"band"`

	// Whitener overrides the default spectrum.BandWhitener.
	Whitener Whitener `validate:"-" yaml:"-"`
}

// Normalizer turns segments into spectra.
type Normalizer struct {
	cfg    NormalizeConfig
	logger *zap.Logger
}

// NewNormalizer validates cfg and returns a Normalizer.
func NewNormalizer(cfg NormalizeConfig, opts ...core.ProcessorOption) (*Normalizer, error) {
	if err := core.Validate(cfg); err != nil {
		return nil, fmt.Errorf("noise: normalizer: %w", err)
	}
	if cfg.FreqNorm == FreqNormWhiten {
		if err := core.Validate(cfg.Band); err != nil {
			return nil, fmt.Errorf("noise: whitening band: %w", err)
		}
		if nyq := cfg.SampleRate / 2; cfg.Band.FreqMax > nyq {
			return nil, core.Configf("noise: whitening band ends at %g Hz above Nyquist %g Hz", cfg.Band.FreqMax, nyq)
		}
		if cfg.Whitener == nil {
			cfg.Whitener = spectrum.NewBandWhitener(cfg.WhitenSmoothHalfWidth)
		}
	}

	pc := core.ApplyProcessorOptions(opts...)
	return &Normalizer{cfg: cfg, logger: pc.Logger.Named("normalizer")}, nil
}

// Normalize applies the time-domain normalization to a copy of every row
// and returns the spectra at the next power of two at least as long as a
// row, whitened when configured.
func (n *Normalizer) Normalize(m SegmentMatrix) (SpectrumMatrix, error) {
	if m.Empty() {
		return SpectrumMatrix{}, fmt.Errorf("noise: normalize: no segment: %w", core.ErrInsufficientData)
	}
	npts := len(m.Rows[0])
	plan, err := spectrum.NewPlan(core.NextPowerOf2(npts))
	if err != nil {
		return SpectrumMatrix{}, fmt.Errorf("noise: %w", err)
	}

	dt := 1 / n.cfg.SampleRate
	out := SpectrumMatrix{Spectra: make([][]complex128, m.Len()), NFFT: plan.Len()}
	row := make([]float64, npts)
	for i, r := range m.Rows {
		if len(r) != npts {
			return SpectrumMatrix{}, fmt.Errorf("noise: segment %d has %d samples, want %d", i, len(r), npts)
		}
		copy(row, r)
		n.timeNormalize(row)

		spec, err := plan.ForwardReal(row)
		if err != nil {
			return SpectrumMatrix{}, fmt.Errorf("noise: %w", err)
		}
		if n.cfg.FreqNorm == FreqNormWhiten {
			spec, err = n.cfg.Whitener.Whiten(spec, n.cfg.Band, dt)
			if err != nil {
				return SpectrumMatrix{}, fmt.Errorf("noise: segment %d: %w", i, err)
			}
		}
		out.Spectra[i] = spec
	}

	n.logger.Debug("segments normalized",
		zap.Int("segments", m.Len()), zap.Int("nfft", out.NFFT),
		zap.String("time_norm", string(n.cfg.TimeNorm)), zap.String("freq_norm", string(n.cfg.FreqNorm)))
	return out, nil
}

func (n *Normalizer) timeNormalize(row []float64) {
	switch n.cfg.TimeNorm {
	case TimeNormOneBit:
		for i, v := range row {
			row[i] = core.Sign(v)
		}
	case TimeNormRunningMean:
		abs := make([]float64, len(row))
		for i, v := range row {
			abs[i] = math.Abs(v)
		}
		ma := spectrum.MovingAverage(abs, n.cfg.SmoothHalfWidth)
		for i, a := range ma {
			if a == 0 {
				continue
			}
			row[i] /= a
		}
	}
}

// SmoothSourceSpectrum prepares the source operand of the correlation from
// the positive half (NFFT/2 bins) of every spectrum X:
//
//	xcorr      conj(X)
//	coherency  conj(X) / ma(|X|)
//	deconv     conj(X) / ma(|X|)^2
//
// where ma is a running mean over 2*halfWidth+1 bins. A zero running mean
// yields an error wrapping core.ErrDegenerateInput.
func SmoothSourceSpectrum(m SpectrumMatrix, method CCMethod, halfWidth int) ([][]complex128, error) {
	switch method {
	case MethodXCorr, MethodCoherency, MethodDeconv:
	default:
		return nil, core.Configf("noise: unknown correlation method %q", method)
	}
	half := m.NFFT / 2
	out := make([][]complex128, m.Len())
	for i, spec := range m.Spectra {
		if len(spec) < half {
			return nil, fmt.Errorf("noise: spectrum %d has %d bins, want %d", i, len(spec), m.NFFT)
		}
		row := make([]complex128, half)
		for k := range row {
			row[k] = cmplx.Conj(spec[k])
		}
		if method != MethodXCorr {
			ma := spectrum.MovingAverage(spectrum.Magnitude(spec[:half]), halfWidth)
			for k, a := range ma {
				if a == 0 {
					return nil, fmt.Errorf("noise: smoothed source amplitude is zero at bin %d of segment %d: %w",
						k, i, core.ErrDegenerateInput)
				}
				if method == MethodDeconv {
					a *= a
				}
				row[k] /= complex(a, 0)
			}
		}
		out[i] = row
	}
	return out, nil
}
