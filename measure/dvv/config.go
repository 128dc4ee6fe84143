package dvv

import (
	"fmt"

	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/dsp/wavelet"
	"github.com/cwbudde/algo-noise/measure/dtw"
	"go.uber.org/zap"
)

// Method names a dv/v estimator.
type Method string

const (
	MethodStretching Method = "stretching"
	MethodDTW        Method = "dtw"
	MethodMWCS       Method = "mwcs"
	MethodWCC        Method = "wcc"
	MethodWXS        Method = "wxs"
	MethodWTS        Method = "wts"
	MethodWTDTW      Method = "wtdtw"
)

// Methods lists every estimator.
var Methods = []Method{MethodStretching, MethodDTW, MethodMWCS, MethodWCC, MethodWXS, MethodWTS, MethodWTDTW}

// Defaults applied by New to zero-valued fields.
const (
	DefaultDvRange = 0.05
	DefaultTrials  = 50
	DefaultMaxLag  = 50
	DefaultStrain  = 1
	DefaultDj      = 1.0 / 12
)

// Window is the lapse-time window in seconds. The first sample of a trace
// sits at TMin.
type Window struct {
	TMin float64 `yaml:"tmin"`
	TMax float64 `validate:"gtfield=TMin" yaml:"tmax"`
}

// Band is the frequency band in Hz.
type Band struct {
	FMin float64 `validate:"gt=0" yaml:"fmin"`
	FMax float64 `validate:"gtfield=FMin" yaml:"fmax"`
}

// Params describes the traces shared by every estimator.
type Params struct {
	Window Window  `yaml:"window"`
	Band   Band    `yaml:"band"`
	Dt     float64 `validate:"gt=0" yaml:"dt"`
}

// Config configures an Estimator.
type Config struct {
	Method Method `validate:"oneof=stretching dtw mwcs wcc wxs wts wtdtw" yaml:"method"`
	Params Params `yaml:"params"`

	// DvRange bounds the trial stretches to [-DvRange, DvRange].
	DvRange float64 `validate:"gte=0,lt=1" yaml:"dv_range"`
	NTrial  int     `validate:"gte=0" yaml:"nbtrial"`

	// MaxLag is the DTW lag search half-width in samples. StrainB limits
	// the lag change to one sample per StrainB samples.
	MaxLag    int           `validate:"gte=0" yaml:"max_lag"`
	StrainB   int           `validate:"gte=0" yaml:"b"`
	Direction dtw.Direction `validate:"oneof=-1 1" yaml:"direction"`
	Norm      dtw.Norm      `validate:"oneof=0 1" yaml:"norm"`

	// MovingWindow and SlideStep (seconds) drive mwcs and wcc.
	MovingWindow float64 `validate:"gte=0" yaml:"moving_window"`
	SlideStep    float64 `validate:"gte=0" yaml:"slide_step"`
	// SmoothHalfWin is the Hann smoothing half-width of the mwcs spectra;
	// zero disables smoothing.
	SmoothHalfWin int `validate:"gte=0" yaml:"smoothing_half_win"`

	// Wavelet scale layout; zero values select Dj = 1/12 and automatic S0
	// and J.
	Dj float64 `validate:"gte=0" yaml:"dj"`
	S0 float64 `validate:"gte=0" yaml:"s0"`
	J  int     `yaml:"j"`
	// AllFrequencies makes the wavelet estimators report per frequency.
	AllFrequencies bool `yaml:"allfreq"`
	// Unwrap unwraps the wxs phase along time.
	Unwrap bool `yaml:"unwrap"`
	// RawWavelet skips the z-scoring of band traces in wts and wtdtw.
	RawWavelet bool `yaml:"raw_wavelet"`

	// Coherence overrides the default wavelet coherence used by wxs.
	Coherence CoherenceEstimator `validate:"-" yaml:"-"`
}

// Estimator measures dv/v. It holds no mutable state and may be shared
// between goroutines.
type Estimator struct {
	cfg    Config
	logger *zap.Logger
}

// New fills defaults, validates cfg and returns an Estimator.
func New(cfg Config, opts ...core.ProcessorOption) (*Estimator, error) {
	if cfg.DvRange == 0 {
		cfg.DvRange = DefaultDvRange
	}
	if cfg.NTrial == 0 {
		cfg.NTrial = DefaultTrials
	}
	if cfg.MaxLag == 0 {
		cfg.MaxLag = DefaultMaxLag
	}
	if cfg.StrainB == 0 {
		cfg.StrainB = DefaultStrain
	}
	if cfg.Direction == 0 {
		cfg.Direction = dtw.Forward
	}
	if cfg.Dj == 0 {
		cfg.Dj = DefaultDj
	}
	if cfg.J == 0 {
		cfg.J = -1
	}
	if err := core.Validate(cfg); err != nil {
		return nil, fmt.Errorf("dvv: %w", err)
	}
	if cfg.NTrial < 5 {
		return nil, core.Configf("dvv: nbtrial must be at least 5: %d", cfg.NTrial)
	}
	if cfg.Method == MethodMWCS || cfg.Method == MethodWCC {
		if cfg.MovingWindow <= 0 || cfg.SlideStep <= 0 {
			return nil, core.Configf("dvv: %s needs moving_window and slide_step > 0", cfg.Method)
		}
		if int(cfg.MovingWindow/cfg.Params.Dt) < 4 {
			return nil, core.Configf("dvv: moving window %gs spans fewer than 4 samples", cfg.MovingWindow)
		}
	}
	if cfg.Coherence == nil {
		cfg.Coherence = WaveletCoherence{}
	}

	pc := core.ApplyProcessorOptions(opts...)
	return &Estimator{cfg: cfg, logger: pc.Logger.Named("dvv")}, nil
}

// Config returns the effective configuration.
func (e *Estimator) Config() Config { return e.cfg }

// times returns the lapse times TMin + i*Dt of n samples.
func (e *Estimator) times(n int) []float64 {
	p := e.cfg.Params
	t := make([]float64, n)
	for i := range t {
		t[i] = p.Window.TMin + float64(i)*p.Dt
	}
	return t
}

func (e *Estimator) waveletConfig() wavelet.Config {
	return wavelet.Config{Dt: e.cfg.Params.Dt, Dj: e.cfg.Dj, S0: e.cfg.S0, J: e.cfg.J}
}

// checkPair rejects traces that cannot be compared sample by sample.
func checkPair(ref, cur []float64) error {
	if len(ref) != len(cur) {
		return fmt.Errorf("dvv: reference has %d samples, current %d", len(ref), len(cur))
	}
	if len(ref) < 3 {
		return fmt.Errorf("dvv: %d samples: %w", len(ref), core.ErrInsufficientData)
	}
	return nil
}
