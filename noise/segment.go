package noise

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/dsp/signal"
	"github.com/cwbudde/algo-noise/dsp/window"
	"github.com/cwbudde/algo-noise/stats/descriptive"
	"go.uber.org/zap"
)

// Segment taper: Hann edges over 5 % of the segment, at most 20 samples.
const (
	taperFraction = 0.05
	taperMaxLen   = 20
)

// SegmentConfig configures a Segmenter. Lengths are in seconds.
type SegmentConfig struct {
	WindowHours   float64 `validate:"gt=0" yaml:"inc_hours"`
	SegmentLength float64 `validate:"gt=0" yaml:"cc_len"`
	Step          float64 `validate:"gt=0" yaml:"step"`
}

// Segments returns the number of segments in one analysis window.
func (c SegmentConfig) Segments() int {
	return int(math.Floor((c.WindowHours*3600 - c.SegmentLength) / c.Step))
}

// Segmenter slices a waveform into overlapping, tapered segments.
type Segmenter struct {
	cfg    SegmentConfig
	logger *zap.Logger
}

// NewSegmenter validates cfg and returns a Segmenter.
func NewSegmenter(cfg SegmentConfig, opts ...core.ProcessorOption) (*Segmenter, error) {
	if err := core.Validate(cfg); err != nil {
		return nil, fmt.Errorf("noise: segmenter: %w", err)
	}
	if cfg.Segments() < 1 {
		return nil, core.Configf("noise: segment length %gs and step %gs leave no segment in %gh",
			cfg.SegmentLength, cfg.Step, cfg.WindowHours)
	}

	pc := core.ApplyProcessorOptions(opts...)
	return &Segmenter{cfg: cfg, logger: pc.Logger.Named("segmenter")}, nil
}

// Config returns the segmenter configuration.
func (s *Segmenter) Config() SegmentConfig { return s.cfg }

// Segment cuts w into Segments() rows of SegmentLength*SampleRate samples
// spaced Step apart. Every row is demeaned, detrended and tapered. A
// waveform shorter than the analysis window yields an empty matrix and no
// error; a flat or non-finite waveform yields an error wrapping
// core.ErrDegenerateInput.
func (s *Segmenter) Segment(w Waveform) (SegmentMatrix, error) {
	if w.SampleRate <= 0 {
		return SegmentMatrix{}, core.Configf("noise: sample rate must be > 0: %g", w.SampleRate)
	}
	empty := SegmentMatrix{SampleRate: w.SampleRate}

	need := int(w.SampleRate * s.cfg.WindowHours * 3600)
	if len(w.Samples) < need {
		s.logger.Warn("waveform shorter than analysis window",
			zap.Int("samples", len(w.Samples)), zap.Int("required", need))
		return empty, nil
	}

	global := descriptive.Calculate(w.Samples)
	mad, std := global.MAD, global.Std
	if mad == 0 || std == 0 || !core.IsFinite(mad) || !core.IsFinite(std) {
		return empty, fmt.Errorf("noise: waveform mad=%g std=%g: %w", mad, std, core.ErrDegenerateInput)
	}

	npts := core.Round(s.cfg.SegmentLength * w.SampleRate)
	stepN := core.Round(s.cfg.Step * w.SampleRate)
	if npts < 2 || stepN < 1 {
		return empty, core.Configf("noise: segment of %d samples with step %d at %g Hz", npts, stepN, w.SampleRate)
	}
	taper, err := window.EdgeTaper(npts, taperFraction, taperMaxLen)
	if err != nil {
		return empty, fmt.Errorf("noise: %w", err)
	}

	nseg := s.cfg.Segments()
	out := SegmentMatrix{
		Rows:       make([][]float64, 0, nseg),
		AmpRatio:   make([]float64, 0, nseg),
		Starts:     make([]time.Time, 0, nseg),
		SampleRate: w.SampleRate,
	}
	step := time.Duration(s.cfg.Step * float64(time.Second))
	for i := range nseg {
		lo := i * stepN
		if lo+npts > len(w.Samples) {
			break
		}
		row := make([]float64, npts)
		copy(row, w.Samples[lo:lo+npts])

		out.AmpRatio = append(out.AmpRatio, descriptive.AmplitudeRatio(row, std))
		out.Starts = append(out.Starts, w.Start.Add(time.Duration(i)*step))

		signal.Demean(row)
		signal.Detrend(row)
		if err := window.ApplyCoefficientsInPlace(row, taper); err != nil {
			return empty, fmt.Errorf("noise: %w", err)
		}
		out.Rows = append(out.Rows, row)
	}

	s.logger.Debug("waveform segmented",
		zap.Int("segments", out.Len()), zap.Int("npts", npts),
		zap.Float64("std", std), zap.Float64("mad", mad), zap.Float64("rms", global.RMS))
	return out, nil
}
