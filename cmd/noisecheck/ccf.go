package main

import (
	"fmt"
	"math"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/algo-noise/dsp/conv"
	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/dsp/signal"
	"github.com/cwbudde/algo-noise/noise"
	"github.com/cwbudde/algo-noise/stack"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type ccfOptions struct {
	shift   float64 // s
	hours   float64
	seed    int64
	compare []string
}

func newCCFCmd(a *app) *cobra.Command {
	o := &ccfOptions{}
	cmd := &cobra.Command{
		Use:   "ccf",
		Short: "Correlate a synthetic delayed noise pair and stack the segments",
		Long: `ccf records one white-noise wavefield at two synthetic stations, the
receiver lagging the source by --shift seconds, correlates every segment
through the configured pipeline and stacks them. The stacked peak must sit
at the imposed shift. Every --compare method restacks the same rows and
reports its own peak lag.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCCF(cmd, a, o)
		},
	}
	cmd.Flags().Float64Var(&o.shift, "shift", 2, "receiver delay in seconds")
	cmd.Flags().Float64Var(&o.hours, "hours", 0, "record length in hours (0 keeps segment.inc_hours)")
	cmd.Flags().Int64Var(&o.seed, "seed", 1, "noise seed")
	cmd.Flags().StringArrayVar(&o.compare, "compare", nil, "also stack the surviving rows with this method (repeatable)")
	return cmd
}

func runCCF(cmd *cobra.Command, a *app, o *ccfOptions) error {
	pc := a.cfg.PipelineConfig()
	if o.hours > 0 {
		pc.Segment.WindowHours = o.hours
	}
	pc.Correlate.Substack = true
	pc.Correlate.SubstackLength = pc.Correlate.SegmentLength
	if math.Abs(o.shift) >= pc.Correlate.MaxLag {
		return core.Configf("noisecheck: shift %gs outside maxlag %gs", o.shift, pc.Correlate.MaxLag)
	}

	pipe, err := noise.NewPipeline(pc, core.WithLogger(a.logger))
	if err != nil {
		return err
	}
	stacker, err := stack.New(a.cfg.StackConfig(), core.WithLogger(a.logger))
	if err != nil {
		return err
	}

	sr := a.cfg.SampleRate
	n := int(math.Round(pc.Segment.WindowHours * 3600 * sr))
	lag := int(math.Round(math.Abs(o.shift) * sr))
	g, err := signal.NewGenerator(sr, signal.WithSeed(o.seed))
	if err != nil {
		return err
	}
	x, err := g.WhiteNoise(1, n+lag)
	if err != nil {
		return err
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	early, late := x[lag:], x[:n]
	src := noise.Waveform{Samples: early, SampleRate: sr, Start: start}
	rcv := noise.Waveform{Samples: late, SampleRate: sr, Start: start}
	if o.shift < 0 {
		src.Samples, rcv.Samples = late, early
	}

	pair := noise.PairInfo{Comp: "ZZ"}
	ccf, err := pipe.CrossCorrelate(src, rcv, pair)
	if err != nil {
		return err
	}
	if ccf.Empty() {
		return fmt.Errorf("noisecheck: no segment survived correlation: %w", core.ErrInsufficientData)
	}
	res, err := stacker.Stack(ccf.Data, ccf.Times, ccf.NGood)
	if err != nil {
		return err
	}
	if res.Empty() {
		return fmt.Errorf("noisecheck: no segment survived stacking: %w", core.ErrInsufficientData)
	}
	idx, _ := conv.FindPeak(res.Estimate.Trace())
	a.logger.Debug("stacked", zap.Int("rows", len(res.Rows)), zap.Int("segments", res.Count))

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "component\t%s\n", ccf.Pair.Comp)
	fmt.Fprintf(w, "method\t%s\n", ccf.Method)
	fmt.Fprintf(w, "segments\t%d (%d stacked)\n", ccf.Count(), len(res.Rows))
	fmt.Fprintf(w, "stack\t%s\n", res.Estimate.Method())
	fmt.Fprintf(w, "peak lag\t%.2f s (imposed %.2f s)\n", ccf.Lags[idx], o.shift)

	if len(o.compare) > 0 {
		fmt.Fprintln(w)
	}
	for _, m := range o.compare {
		est, err := stacker.Estimate(stack.Method(m), res.Rows)
		if err != nil {
			return err
		}
		idx, _ := conv.FindPeak(est.Trace())
		fmt.Fprintf(w, "%s\tpeak lag %.2f s\n", est.Method(), ccf.Lags[idx])
	}
	return w.Flush()
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(a.cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
