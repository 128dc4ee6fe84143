package stack

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-noise/dsp/core"
	"go.uber.org/zap"
)

// Defaults applied by New to zero-valued Config fields.
const (
	DefaultRobustTolerance = 0.001
	DefaultNRootPower      = 2
	DefaultPWSPower        = 2
	DefaultACFHarshness    = 1
)

// Rebin resamples rows into time bins [t, t+Width) for t = Start,
// Start+Step, ... before stacking.
type Rebin struct {
	Start time.Time     `yaml:"start"`
	End   time.Time     `validate:"gtfield=Start" yaml:"end"`
	Width time.Duration `validate:"gt=0" yaml:"width"`
	Step  time.Duration `validate:"gt=0" yaml:"step"`
}

// Config configures a Stacker.
type Config struct {
	SampleRate      float64 `validate:"gt=0" yaml:"sample_rate"`
	Method          Method  `validate:"oneof=linear pws robust nroot acf selective all" yaml:"stack_method"`
	RobustTolerance float64 `validate:"gte=0" yaml:"robust_tolerance"`
	MaxIterations   int     `validate:"gte=0" yaml:"max_iterations"`
	NRootPower      float64 `validate:"gte=0" yaml:"nroot_power"`
	PWSPower        float64 `validate:"gte=0" yaml:"pws_power"`
	ACFHarshness    float64 `validate:"gte=0" yaml:"acf_harshness"`
	SelectiveMinCC  float64 `validate:"gte=-1,lte=1" yaml:"selective_min_cc"`
	Rebin           *Rebin  `yaml:"rebin"`

	// Robust and PhaseWeighted override the default estimators.
	Robust        RobustStacker        `validate:"-" yaml:"-"`
	PhaseWeighted PhaseWeightedStacker `validate:"-" yaml:"-"`
}

// Result is the outcome of one Stack call.
type Result struct {
	// Rows are the rows that entered the estimator: the outlier survivors,
	// or the time bins when re-binning is configured.
	Rows     [][]float64
	Times    []time.Time
	NGood    []int
	Estimate Estimate
	// Count is the total number of segments behind Rows.
	Count int
}

// Empty reports whether no row survived.
func (r Result) Empty() bool { return len(r.Rows) == 0 }

// Stacker combines batches of correlation functions.
type Stacker struct {
	cfg    Config
	logger *zap.Logger
}

// New validates cfg and returns a Stacker.
func New(cfg Config, opts ...core.ProcessorOption) (*Stacker, error) {
	if cfg.RobustTolerance == 0 {
		cfg.RobustTolerance = DefaultRobustTolerance
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.NRootPower == 0 {
		cfg.NRootPower = DefaultNRootPower
	}
	if cfg.PWSPower == 0 {
		cfg.PWSPower = DefaultPWSPower
	}
	if cfg.ACFHarshness == 0 {
		cfg.ACFHarshness = DefaultACFHarshness
	}
	if err := core.Validate(cfg); err != nil {
		return nil, fmt.Errorf("stack: %w", err)
	}
	if cfg.Robust == nil {
		cfg.Robust = PavlisVernon{MaxIterations: cfg.MaxIterations}
	}
	if cfg.PhaseWeighted == nil {
		cfg.PhaseWeighted = SchimmelPaulssen{Power: cfg.PWSPower}
	}

	pc := core.ApplyProcessorOptions(opts...)
	return &Stacker{cfg: cfg, logger: pc.Logger.Named("stack")}, nil
}

// Config returns the effective configuration.
func (s *Stacker) Config() Config { return s.cfg }

// Stack applies the outlier rule, optional re-binning and the configured
// estimator. rows, times and ngood are parallel. A batch without survivors
// yields an empty Result and no error.
func (s *Stacker) Stack(rows [][]float64, times []time.Time, ngood []int) (Result, error) {
	if len(times) != len(rows) || len(ngood) != len(rows) {
		return Result{}, fmt.Errorf("stack: %d rows, %d times, %d counts", len(rows), len(times), len(ngood))
	}
	if len(rows) == 0 {
		s.logger.Warn("empty batch")
		return Result{}, nil
	}
	if _, _, err := shape(rows); err != nil {
		return Result{}, err
	}

	keep := Keep(Peaks(rows))
	if len(keep) == 0 {
		s.logger.Warn("no row passed the outlier rule", zap.Int("rows", len(rows)))
		return Result{}, nil
	}
	if dropped := len(rows) - len(keep); dropped > 0 {
		s.logger.Debug("outlier rows dropped", zap.Int("dropped", dropped), zap.Int("kept", len(keep)))
	}

	res := Result{
		Rows:  make([][]float64, len(keep)),
		Times: make([]time.Time, len(keep)),
		NGood: make([]int, len(keep)),
	}
	for k, i := range keep {
		res.Rows[k] = rows[i]
		res.Times[k] = times[i]
		res.NGood[k] = ngood[i]
	}

	if s.cfg.Rebin != nil {
		res = s.rebin(res)
		if res.Empty() {
			s.logger.Warn("no row inside the re-binning range",
				zap.Time("start", s.cfg.Rebin.Start), zap.Time("end", s.cfg.Rebin.End))
			return Result{}, nil
		}
	}

	est, err := s.estimate(s.cfg.Method, res.Rows)
	if err != nil {
		return Result{}, err
	}
	res.Estimate = est
	for _, g := range res.NGood {
		res.Count += g
	}
	return res, nil
}

// Estimate applies method to rows without outlier screening.
func (s *Stacker) Estimate(method Method, rows [][]float64) (Estimate, error) {
	if _, _, err := shape(rows); err != nil {
		return nil, err
	}
	return s.estimate(method, rows)
}

func (s *Stacker) estimate(method Method, rows [][]float64) (Estimate, error) {
	switch method {
	case MethodLinear:
		return Linear{Stack: Mean(rows)}, nil
	case MethodPWS:
		out, err := s.cfg.PhaseWeighted.PhaseWeightedStack(rows, s.cfg.SampleRate)
		if err != nil {
			return nil, err
		}
		return PhaseWeighted{Stack: out}, nil
	case MethodRobust:
		return s.robust(rows)
	case MethodNRoot:
		out, err := NRootStack(rows, s.cfg.NRootPower)
		if err != nil {
			return nil, err
		}
		return NRoot{Stack: out, Power: s.cfg.NRootPower}, nil
	case MethodACF:
		out, err := AdaptiveFilter(rows, s.cfg.ACFHarshness)
		if err != nil {
			return nil, err
		}
		return ACF{Stack: out}, nil
	case MethodSelective:
		sel, err := SelectiveStack(rows, s.cfg.SelectiveMinCC, s.cfg.RobustTolerance, s.cfg.MaxIterations)
		if err != nil {
			return nil, err
		}
		if sel.Fallback {
			s.logger.Warn("selective stack found no row above threshold, using linear stack",
				zap.Float64("min_cc", s.cfg.SelectiveMinCC))
		}
		return sel, nil
	case MethodAll:
		pws, err := s.cfg.PhaseWeighted.PhaseWeightedStack(rows, s.cfg.SampleRate)
		if err != nil {
			return nil, err
		}
		rob, err := s.robust(rows)
		if err != nil {
			return nil, err
		}
		return All{
			Linear:        Linear{Stack: Mean(rows)},
			PhaseWeighted: PhaseWeighted{Stack: pws},
			Robust:        rob,
		}, nil
	default:
		return nil, core.Configf("stack: unknown method %q", method)
	}
}

func (s *Stacker) robust(rows [][]float64) (Robust, error) {
	rob, err := s.cfg.Robust.RobustStack(rows, s.cfg.RobustTolerance)
	if err != nil {
		return Robust{}, err
	}
	for i, w := range rob.Weights {
		if !core.IsFinite(w) {
			rob.Weights[i] = 1
		}
	}
	if rob.Iterations > s.cfg.MaxIterations {
		s.logger.Debug("robust stack stopped at iteration bound", zap.Int("iterations", rob.Iterations))
	}
	return rob, nil
}

func (s *Stacker) rebin(in Result) Result {
	rb := s.cfg.Rebin
	nbin := core.Round(float64(rb.End.Sub(rb.Start)) / float64(rb.Step))
	m := len(in.Rows[0])

	var out Result
	for b := range max(nbin, 0) {
		t0 := rb.Start.Add(time.Duration(b) * rb.Step)
		t1 := t0.Add(rb.Width)

		sum := make([]float64, m)
		count, good := 0, 0
		for i, t := range in.Times {
			if t.Before(t0) || !t.Before(t1) {
				continue
			}
			for j, v := range in.Rows[i] {
				sum[j] += v
			}
			count++
			good += in.NGood[i]
		}
		if count == 0 || good == 0 {
			continue
		}
		for j := range sum {
			sum[j] /= float64(count)
		}
		out.Rows = append(out.Rows, sum)
		out.Times = append(out.Times, t0)
		out.NGood = append(out.NGood, good)
	}
	return out
}
