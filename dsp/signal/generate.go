package signal

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/dsp/interp"
)

// Generator creates deterministic synthetic traces at a fixed sample rate.
type Generator struct {
	sampleRate float64
	seed       int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets deterministic random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a generator for traces sampled at sampleRate Hz.
func NewGenerator(sampleRate float64, opts ...Option) (*Generator, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, core.Configf("signal: sample rate must be > 0: %g", sampleRate)
	}
	g := &Generator{sampleRate: sampleRate, seed: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// SampleRate returns the generator sample rate in Hz.
func (g *Generator) SampleRate() float64 { return g.sampleRate }

// Times returns n sample times starting at t0.
func (g *Generator) Times(t0 float64, n int) []float64 {
	out := make([]float64, n)
	dt := 1 / g.sampleRate
	for i := range out {
		out[i] = t0 + float64(i)*dt
	}
	return out
}

// Sine generates a sine wave.
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("signal: sine samples must be > 0: %d", samples)
	}
	out := make([]float64, samples)
	step := 2 * math.Pi * freqHz / g.sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out, nil
}

// WhiteNoise generates deterministic white noise in [-amplitude, amplitude].
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("signal: noise samples must be > 0: %d", samples)
	}
	if amplitude < 0 {
		return nil, fmt.Errorf("signal: noise amplitude must be >= 0: %f", amplitude)
	}
	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out, nil
}

// Coda generates a band-limited, exponentially decaying noise trace on the
// lag axis t. The envelope is exp(-|t|/decay) and the carrier is a sum of
// randomly phased sinusoids between fmin and fmax.
func (g *Generator) Coda(t []float64, fmin, fmax, decay float64) ([]float64, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("signal: coda needs a time axis: %w", core.ErrInsufficientData)
	}
	if fmin <= 0 || fmax <= fmin || decay <= 0 {
		return nil, core.Configf("signal: coda band [%g, %g] decay %g", fmin, fmax, decay)
	}

	const partials = 24
	rng := rand.New(rand.NewSource(g.seed))
	freqs := make([]float64, partials)
	phases := make([]float64, partials)
	for k := range freqs {
		freqs[k] = fmin + (fmax-fmin)*float64(k)/float64(partials-1)
		phases[k] = 2 * math.Pi * rng.Float64()
	}

	out := make([]float64, len(t))
	for i, ti := range t {
		var s float64
		for k, f := range freqs {
			s += math.Sin(2*math.Pi*f*ti + phases[k])
		}
		out[i] = math.Exp(-math.Abs(ti)/decay) * s / partials
	}
	return out, nil
}

// Dilate returns y(t*(1+dvv)) for a trace y sampled on t. This models a
// homogeneous relative velocity change dvv: a negative dvv delays late
// arrivals proportionally to their lapse time.
func Dilate(t, y []float64, dvv float64) ([]float64, error) {
	if dvv <= -1 {
		return nil, core.Configf("signal: dilation dv/v must be > -1: %g", dvv)
	}
	out := make([]float64, len(y))
	if err := interp.Stretch(out, t, y, 1/(1+dvv)); err != nil {
		return nil, fmt.Errorf("signal: %w", err)
	}
	return out, nil
}
