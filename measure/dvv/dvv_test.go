package dvv

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/dsp/signal"
	"github.com/cwbudde/algo-noise/dsp/wavelet"
	"github.com/cwbudde/algo-noise/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	testRate = 100.0
	testTMin = 5.0
	testN    = 3000
)

var testParams = Params{
	Window: Window{TMin: testTMin, TMax: testTMin + testN/testRate},
	Band:   Band{FMin: 1, FMax: 4},
	Dt:     1 / testRate,
}

// codaPair returns a synthetic coda and the same coda with a homogeneous
// velocity change dvv, cur(t) = ref(t*(1+dvv)).
func codaPair(tb testing.TB, dvv float64) (ref, cur []float64) {
	tb.Helper()
	g, err := signal.NewGenerator(testRate, signal.WithSeed(7))
	if err != nil {
		tb.Fatalf("NewGenerator() error = %v", err)
	}
	t := g.Times(testTMin, testN)
	scaled := make([]float64, len(t))
	for i, v := range t {
		scaled[i] = v * (1 + dvv)
	}
	if ref, err = g.Coda(t, 0.5, 8, 20); err != nil {
		tb.Fatalf("Coda() error = %v", err)
	}
	if cur, err = g.Coda(scaled, 0.5, 8, 20); err != nil {
		tb.Fatalf("Coda() error = %v", err)
	}
	return ref, cur
}

func testConfig(method Method) Config {
	return Config{
		Method:        method,
		Params:        testParams,
		DvRange:       0.01,
		MaxLag:        20,
		MovingWindow:  5,
		SlideStep:     2.5,
		SmoothHalfWin: 5,
	}
}

func mustEstimator(tb testing.TB, cfg Config) *Estimator {
	tb.Helper()
	e, err := New(cfg)
	if err != nil {
		tb.Fatalf("New() error = %v", err)
	}
	return e
}

func TestStretchingRecoversDilation(t *testing.T) {
	for _, want := range []float64{-0.2, 0.2} {
		ref, cur := codaPair(t, want/100)
		r, err := mustEstimator(t, testConfig(MethodStretching)).Stretching(ref, cur)
		if err != nil {
			t.Fatalf("Stretching() error = %v", err)
		}
		testutil.RequireWithin(t, "dv/v", r.DvV, want, 0.05)
		if r.CC < 0.99 || r.CDP >= r.CC {
			t.Fatalf("cc = %.4f, cdp = %.4f", r.CC, r.CDP)
		}
		if !(r.Err >= 0) || math.IsInf(r.Err, 0) {
			t.Fatalf("err = %v, want finite and non-negative", r.Err)
		}
	}
}

func TestStretchingShortTrialGrid(t *testing.T) {
	// A 1.2% change lies outside the 1% search range, so the coarse peak
	// sits on the first or last trial.
	for _, ntrial := range []int{5, 6, 7} {
		for _, imposed := range []float64{-1.2, 0, 1.2} {
			ref, cur := codaPair(t, imposed/100)
			cfg := testConfig(MethodStretching)
			cfg.NTrial = ntrial
			r, err := mustEstimator(t, cfg).Stretching(ref, cur)
			if err != nil {
				t.Fatalf("nbtrial %d, dv/v %g: Stretching() error = %v", ntrial, imposed, err)
			}
			if math.IsNaN(r.DvV) || math.Abs(r.DvV) > 100*cfg.DvRange+1e-9 {
				t.Fatalf("nbtrial %d, dv/v %g: got %v outside the search range", ntrial, imposed, r.DvV)
			}
			if imposed != 0 && r.DvV*imposed <= 0 {
				t.Fatalf("nbtrial %d, dv/v %g: got %v with the wrong sign", ntrial, imposed, r.DvV)
			}
		}
	}
}

func TestStretchingIdenticalTraces(t *testing.T) {
	ref, _ := codaPair(t, 0)
	r, err := mustEstimator(t, testConfig(MethodStretching)).Stretching(ref, ref)
	if err != nil {
		t.Fatalf("Stretching() error = %v", err)
	}
	if math.Abs(r.DvV) > 0.01 || r.CDP < 0.999999 {
		t.Fatalf("dv/v = %v, cdp = %v", r.DvV, r.CDP)
	}
}

func TestEstimatorsAgreeOnDilation(t *testing.T) {
	const want = -0.2
	ref, cur := codaPair(t, want/100)

	for _, m := range Methods {
		t.Run(string(m), func(t *testing.T) {
			res, err := mustEstimator(t, testConfig(m)).Measure(ref, cur)
			if err != nil {
				t.Fatalf("Measure() error = %v", err)
			}
			if res.Method != m || res.PerFrequency != nil {
				t.Fatalf("result = %+v", res)
			}
			if res.DvV >= 0 || math.Abs(res.DvV-want) > 0.1 {
				t.Fatalf("dv/v = %.4f%%, want %.1f%%", res.DvV, want)
			}
		})
	}
}

func TestPerFrequencyMode(t *testing.T) {
	ref, cur := codaPair(t, -0.002)
	for _, m := range []Method{MethodWXS, MethodWTS, MethodWTDTW} {
		t.Run(string(m), func(t *testing.T) {
			cfg := testConfig(m)
			cfg.AllFrequencies = true
			res, err := mustEstimator(t, cfg).Measure(ref, cur)
			if err != nil {
				t.Fatalf("Measure() error = %v", err)
			}
			fm := res.PerFrequency
			if fm == nil || fm.Len() == 0 || len(fm.DvV) != fm.Len() || len(fm.Err) != fm.Len() {
				t.Fatalf("per-frequency result = %+v", fm)
			}
			negative := 0
			for i, f := range fm.Freqs {
				if f < testParams.Band.FMin || f > testParams.Band.FMax {
					t.Fatalf("frequency %d = %g outside band", i, f)
				}
				if fm.DvV[i] < 0 {
					negative++
				}
			}
			if negative*2 < fm.Len() {
				t.Fatalf("%d of %d frequencies negative: %v", negative, fm.Len(), fm.DvV)
			}
		})
	}
}

func TestDelayProfileFollowsLapseTime(t *testing.T) {
	ref, cur := codaPair(t, -0.002)
	delays, err := mustEstimator(t, testConfig(MethodMWCS)).DelayProfile(ref, cur)
	if err != nil {
		t.Fatalf("DelayProfile() error = %v", err)
	}
	if len(delays) != 11 {
		t.Fatalf("windows = %d, want 11", len(delays))
	}
	if delays[0].Time != 7.5 || delays[10].Time != 32.5 {
		t.Fatalf("window centers %v .. %v", delays[0].Time, delays[10].Time)
	}
	if !(delays[10].Shift > delays[0].Shift) || delays[0].Shift <= 0 {
		t.Fatalf("shifts %v .. %v should grow from a positive start", delays[0].Shift, delays[10].Shift)
	}
	for _, d := range delays {
		if d.Coherence < 0.65 || d.Coherence > 1 {
			t.Fatalf("window at %gs coherence %v", d.Time, d.Coherence)
		}
	}
}

// nanPhase hides the phase of every sample from keep onwards.
type nanPhase struct{ keep int }

func (c nanPhase) Coherence(ref, cur []float64, cfg wavelet.Config, normalize bool) (*wavelet.Coherence, error) {
	coh, err := wavelet.WaveletCoherence(ref, cur, cfg, normalize)
	if err != nil {
		return nil, err
	}
	for _, row := range coh.Phase {
		for it := c.keep; it < len(row); it++ {
			row[it] = math.NaN()
		}
	}
	return coh, nil
}

func TestTooFewPointsGiveZero(t *testing.T) {
	ref, cur := codaPair(t, -0.002)

	windows := func(m Method) Config {
		cfg := testConfig(m)
		cfg.MovingWindow, cfg.SlideStep = 20, 8
		return cfg
	}
	short := testConfig(MethodDTW)
	short.MaxLag = 2
	wxs := testConfig(MethodWXS)
	wxs.Coherence = nanPhase{keep: 2}

	tests := []struct {
		name     string
		cfg      Config
		ref, cur []float64
	}{
		{"mwcs", windows(MethodMWCS), ref, cur},
		{"wcc", windows(MethodWCC), ref, cur},
		{"dtw", short, ref[:3], cur[:3]},
		{"wxs", wxs, ref, cur},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, logs := observer.New(zap.WarnLevel)
			e, err := New(tt.cfg, core.WithLogger(zap.New(obs)))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			res, err := e.Measure(tt.ref, tt.cur)
			if err != nil {
				t.Fatalf("Measure() error = %v", err)
			}
			if res.DvV != 0 || res.Err != 0 {
				t.Fatalf("result = %+v, want zero", res.Measurement)
			}
			if logs.FilterMessage("too few points for regression").Len() != 1 {
				t.Fatalf("warnings = %v", logs.All())
			}
		})
	}
}

func TestNewValidation(t *testing.T) {
	tests := map[string]func(*Config){
		"unknown method":     func(c *Config) { c.Method = "xcorr" },
		"inverted band":      func(c *Config) { c.Params.Band.FMax = 0.5 },
		"zero band":          func(c *Config) { c.Params.Band.FMin = 0 },
		"inverted window":    func(c *Config) { c.Params.Window.TMax = 1 },
		"zero dt":            func(c *Config) { c.Params.Dt = 0 },
		"huge range":         func(c *Config) { c.DvRange = 1 },
		"few trials":         func(c *Config) { c.NTrial = 3 },
		"bad direction":      func(c *Config) { c.Direction = 2 },
		"no moving window":   func(c *Config) { c.Method, c.MovingWindow = MethodMWCS, 0 },
		"no slide step":      func(c *Config) { c.Method, c.SlideStep = MethodWCC, 0 },
		"tiny moving window": func(c *Config) { c.Method, c.MovingWindow = MethodMWCS, 0.02 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(MethodStretching)
			mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, core.ErrConfiguration) {
				t.Fatalf("New() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	e := mustEstimator(t, Config{Method: MethodDTW, Params: testParams})
	cfg := e.Config()
	if cfg.DvRange != DefaultDvRange || cfg.NTrial != DefaultTrials || cfg.MaxLag != DefaultMaxLag {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.StrainB != DefaultStrain || cfg.Dj != DefaultDj || cfg.J != -1 || cfg.Coherence == nil {
		t.Fatalf("defaults = %+v", cfg)
	}
}

func TestRuntimeConfigurationErrors(t *testing.T) {
	ref, cur := codaPair(t, 0)

	cfg := testConfig(MethodWXS)
	cfg.Params.Band = Band{FMin: 1, FMax: 60}
	if _, err := mustEstimator(t, cfg).Measure(ref, cur); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("wxs above resolved band: error = %v", err)
	}

	cfg = testConfig(MethodDTW)
	if _, err := mustEstimator(t, cfg).DTW(ref[:10], cur[:10]); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("dtw lag beyond trace: error = %v", err)
	}

	cfg = testConfig(MethodMWCS)
	cfg.MovingWindow = 40
	if _, err := mustEstimator(t, cfg).MWCS(ref, cur); !errors.Is(err, core.ErrConfiguration) {
		t.Fatalf("window beyond trace: error = %v", err)
	}
}

func TestLengthMismatch(t *testing.T) {
	ref, cur := codaPair(t, 0)
	e := mustEstimator(t, testConfig(MethodStretching))
	if _, err := e.Measure(ref, cur[:100]); err == nil {
		t.Fatal("length mismatch should fail")
	}
	if _, err := e.Measure(ref[:2], cur[:2]); !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("two samples: error = %v", err)
	}
}
