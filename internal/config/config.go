// Package config loads the toolkit configuration: built-in defaults, an
// optional YAML file and NOISE_* environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/dsp/spectrum"
	"github.com/cwbudde/algo-noise/measure/dtw"
	"github.com/cwbudde/algo-noise/measure/dvv"
	"github.com/cwbudde/algo-noise/noise"
	"github.com/cwbudde/algo-noise/stack"
	"gopkg.in/yaml.v3"
)

// Config is the file-level configuration. Sample spacing and segment
// length are set once at the top level and copied into every component
// by the conversion helpers; the corresponding fields inside the sections
// are ignored.
type Config struct {
	SampleRate float64 `validate:"gt=0" yaml:"samp_freq"`
	MaxOverStd float64 `validate:"gte=0" yaml:"max_over_std"`
	Workers    int     `validate:"gte=0" yaml:"workers"`
	LogLevel   string  `validate:"oneof=debug info warn error" yaml:"log_level"`

	Segment   noise.SegmentConfig   `validate:"-" yaml:"segment"`
	Normalize noise.NormalizeConfig `validate:"-" yaml:"normalize"`
	Correlate noise.CorrelateConfig `validate:"-" yaml:"correlate"`
	Stack     stack.Config          `validate:"-" yaml:"stack"`
	DvV       dvv.Config            `validate:"-" yaml:"dvv"`
}

// Default returns a day-long, 20 Hz configuration with half-hour segments.
func Default() Config {
	return Config{
		SampleRate: 20,
		MaxOverStd: 10,
		LogLevel:   "info",
		Segment: noise.SegmentConfig{
			WindowHours:   24,
			SegmentLength: 1800,
			Step:          450,
		},
		Normalize: noise.NormalizeConfig{
			TimeNorm:        noise.TimeNormNone,
			FreqNorm:        noise.FreqNormWhiten,
			SmoothHalfWidth: 20,
			Band:            spectrum.Band{FreqMin: 0.05, FreqMax: 2},
		},
		Correlate: noise.CorrelateConfig{
			MaxLag:          200,
			Method:          noise.MethodXCorr,
			SmoothHalfWidth: 20,
			StackMethod:     stack.MethodLinear,
		},
		Stack: stack.Config{
			Method: stack.MethodLinear,
		},
		DvV: dvv.Config{
			Method: dvv.MethodStretching,
			Params: dvv.Params{
				Window: dvv.Window{TMin: 20, TMax: 80},
				Band:   dvv.Band{FMin: 0.1, FMax: 0.5},
			},
			DvRange:       dvv.DefaultDvRange,
			NTrial:        dvv.DefaultTrials,
			MaxLag:        dvv.DefaultMaxLag,
			StrainB:       dvv.DefaultStrain,
			Direction:     dtw.Forward,
			MovingWindow:  10,
			SlideStep:     5,
			SmoothHalfWin: 5,
			Dj:            dvv.DefaultDj,
			J:             -1,
		},
	}
}

// Load returns the defaults overlaid with the file at path (skipped when
// path is empty) and the environment, then validates the result. JSON
// files are accepted as YAML flow documents.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the top-level fields and builds every component once so
// that their own validation, including cross-field checks, runs.
func (c Config) Validate() error {
	if err := core.Validate(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := noise.NewPipeline(c.PipelineConfig()); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := stack.New(c.StackConfig()); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := dvv.New(c.DvVConfig()); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// PipelineConfig returns the cross-correlation pipeline configuration.
func (c Config) PipelineConfig() noise.PipelineConfig {
	norm := c.Normalize
	norm.SampleRate = c.SampleRate
	corr := c.Correlate
	corr.Dt = 1 / c.SampleRate
	corr.SegmentLength = c.Segment.SegmentLength
	return noise.PipelineConfig{
		Segment:    c.Segment,
		Normalize:  norm,
		Correlate:  corr,
		MaxOverStd: c.MaxOverStd,
	}
}

// StackConfig returns the stacker configuration.
func (c Config) StackConfig() stack.Config {
	s := c.Stack
	s.SampleRate = c.SampleRate
	return s
}

// DvVConfig returns the dv/v estimator configuration.
func (c Config) DvVConfig() dvv.Config {
	d := c.DvV
	d.Params.Dt = 1 / c.SampleRate
	return d
}

// errEnv marks a malformed environment override.
var errEnv = errors.New("config: invalid environment override")

type envSetter func(cfg *Config, v string) error

func envFloat(dst func(*Config) *float64) envSetter {
	return func(cfg *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst(cfg) = f
		return nil
	}
}

func envInt(dst func(*Config) *int) envSetter {
	return func(cfg *Config, v string) error {
		i, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(cfg) = i
		return nil
	}
}

func envBool(dst func(*Config) *bool) envSetter {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst(cfg) = b
		return nil
	}
}

// envOverrides maps NOISE_* variables to the fields they set.
var envOverrides = []struct {
	name string
	set  envSetter
}{
	{"NOISE_SAMP_FREQ", envFloat(func(c *Config) *float64 { return &c.SampleRate })},
	{"NOISE_MAX_OVER_STD", envFloat(func(c *Config) *float64 { return &c.MaxOverStd })},
	{"NOISE_WORKERS", envInt(func(c *Config) *int { return &c.Workers })},
	{"NOISE_LOG_LEVEL", func(c *Config, v string) error { c.LogLevel = v; return nil }},
	{"NOISE_INC_HOURS", envFloat(func(c *Config) *float64 { return &c.Segment.WindowHours })},
	{"NOISE_CC_LEN", envFloat(func(c *Config) *float64 { return &c.Segment.SegmentLength })},
	{"NOISE_STEP", envFloat(func(c *Config) *float64 { return &c.Segment.Step })},
	{"NOISE_TIME_NORM", func(c *Config, v string) error { c.Normalize.TimeNorm = noise.TimeNorm(v); return nil }},
	{"NOISE_FREQ_NORM", func(c *Config, v string) error { c.Normalize.FreqNorm = noise.FreqNorm(v); return nil }},
	{"NOISE_WHITEN_SMOOTH_N", envInt(func(c *Config) *int { return &c.Normalize.WhitenSmoothHalfWidth })},
	{"NOISE_FREQMIN", envFloat(func(c *Config) *float64 { return &c.Normalize.Band.FreqMin })},
	{"NOISE_FREQMAX", envFloat(func(c *Config) *float64 { return &c.Normalize.Band.FreqMax })},
	{"NOISE_CC_METHOD", func(c *Config, v string) error { c.Correlate.Method = noise.CCMethod(v); return nil }},
	{"NOISE_MAXLAG", envFloat(func(c *Config) *float64 { return &c.Correlate.MaxLag })},
	{"NOISE_SUBSTACK", envBool(func(c *Config) *bool { return &c.Correlate.Substack })},
	{"NOISE_SUBSTACK_LEN", envFloat(func(c *Config) *float64 { return &c.Correlate.SubstackLength })},
	{"NOISE_STACK_METHOD", func(c *Config, v string) error { c.Stack.Method = stack.Method(v); return nil }},
	{"NOISE_DVV_METHOD", func(c *Config, v string) error { c.DvV.Method = dvv.Method(v); return nil }},
	{"NOISE_DVV_TMIN", envFloat(func(c *Config) *float64 { return &c.DvV.Params.Window.TMin })},
	{"NOISE_DVV_TMAX", envFloat(func(c *Config) *float64 { return &c.DvV.Params.Window.TMax })},
	{"NOISE_DVV_FMIN", envFloat(func(c *Config) *float64 { return &c.DvV.Params.Band.FMin })},
	{"NOISE_DVV_FMAX", envFloat(func(c *Config) *float64 { return &c.DvV.Params.Band.FMax })},
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, o := range envOverrides {
		v, ok := lookup(o.name)
		if !ok || v == "" {
			continue
		}
		if err := o.set(cfg, v); err != nil {
			return fmt.Errorf("%w: %s=%q: %v", errEnv, o.name, v, err)
		}
	}
	return nil
}
