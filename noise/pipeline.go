package noise

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-noise/dsp/core"
	"go.uber.org/zap"
)

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	Segment   SegmentConfig   `yaml:"segment"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Correlate CorrelateConfig `yaml:"correlate"`
	// MaxOverStd drops segments whose amplitude ratio reaches this value on
	// either channel. Zero keeps every segment.
	MaxOverStd float64 `validate:"gte=0" yaml:"max_over_std"`
}

// Pipeline runs segmentation, normalization and correlation for one
// station pair.
type Pipeline struct {
	cfg        PipelineConfig
	segmenter  *Segmenter
	normalizer *Normalizer
	correlator *Correlator
	logger     *zap.Logger
}

// NewPipeline builds the three stages from cfg.
func NewPipeline(cfg PipelineConfig, opts ...core.ProcessorOption) (*Pipeline, error) {
	if cfg.MaxOverStd < 0 {
		return nil, core.Configf("noise: max_over_std must be >= 0: %g", cfg.MaxOverStd)
	}
	if dt := 1 / cfg.Normalize.SampleRate; math.Abs(dt-cfg.Correlate.Dt) > 1e-9*dt {
		return nil, core.Configf("noise: correlation dt %g does not match sample rate %g Hz",
			cfg.Correlate.Dt, cfg.Normalize.SampleRate)
	}
	if cfg.Correlate.SegmentLength != cfg.Segment.SegmentLength {
		return nil, core.Configf("noise: correlation segment length %gs differs from segmenter %gs",
			cfg.Correlate.SegmentLength, cfg.Segment.SegmentLength)
	}

	seg, err := NewSegmenter(cfg.Segment, opts...)
	if err != nil {
		return nil, err
	}
	norm, err := NewNormalizer(cfg.Normalize, opts...)
	if err != nil {
		return nil, err
	}
	corr, err := NewCorrelator(cfg.Correlate, opts...)
	if err != nil {
		return nil, err
	}

	pc := core.ApplyProcessorOptions(opts...)
	return &Pipeline{
		cfg:        cfg,
		segmenter:  seg,
		normalizer: norm,
		correlator: corr,
		logger:     pc.Logger.Named("pipeline"),
	}, nil
}

// CrossCorrelate correlates source with receiver and tags the result with
// pair. Both waveforms must be sampled at the configured rate. Soft
// failures (short waveforms, no quiet segment, no outlier survivor) yield
// an empty CCF and no error.
func (p *Pipeline) CrossCorrelate(source, receiver Waveform, pair PairInfo) (CCF, error) {
	for _, w := range []Waveform{source, receiver} {
		if w.SampleRate != p.cfg.Normalize.SampleRate {
			return CCF{}, core.Configf("noise: waveform sampled at %g Hz, pipeline expects %g Hz",
				w.SampleRate, p.cfg.Normalize.SampleRate)
		}
	}

	empty := p.correlator.result()
	empty.Pair = pair

	segS, err := p.segmenter.Segment(source)
	if err != nil {
		return CCF{}, fmt.Errorf("noise: source: %w", err)
	}
	segR, err := p.segmenter.Segment(receiver)
	if err != nil {
		return CCF{}, fmt.Errorf("noise: receiver: %w", err)
	}
	if segS.Empty() || segR.Empty() || segS.Len() != segR.Len() {
		p.logger.Warn("pair skipped, segmentation incomplete",
			zap.String("comp", pair.Comp), zap.Int("source", segS.Len()), zap.Int("receiver", segR.Len()))
		return empty, nil
	}

	if p.cfg.MaxOverStd > 0 {
		keep := quietSegments(segS, segR, p.cfg.MaxOverStd)
		if len(keep) == 0 {
			p.logger.Warn("pair skipped, every segment exceeds max_over_std",
				zap.String("comp", pair.Comp), zap.Float64("max_over_std", p.cfg.MaxOverStd))
			return empty, nil
		}
		if len(keep) < segS.Len() {
			p.logger.Debug("loud segments dropped", zap.Int("dropped", segS.Len()-len(keep)))
		}
		segS, segR = segS.Select(keep), segR.Select(keep)
	}

	specS, err := p.normalizer.Normalize(segS)
	if err != nil {
		return CCF{}, err
	}
	specR, err := p.normalizer.Normalize(segR)
	if err != nil {
		return CCF{}, err
	}
	cc := p.correlator.cfg
	src, err := SmoothSourceSpectrum(specS, cc.Method, cc.SmoothHalfWidth)
	if err != nil {
		return CCF{}, err
	}

	out, err := p.correlator.Correlate(src, specR, segS.Starts)
	if err != nil {
		return CCF{}, err
	}
	out.Pair = pair
	return out, nil
}

// quietSegments returns the indices where both amplitude ratios stay below
// limit.
func quietSegments(a, b SegmentMatrix, limit float64) []int {
	var keep []int
	for i := range a.AmpRatio {
		if a.AmpRatio[i] < limit && b.AmpRatio[i] < limit {
			keep = append(keep, i)
		}
	}
	return keep
}
