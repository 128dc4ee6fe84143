package main

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/dsp/signal"
	"github.com/cwbudde/algo-noise/measure/dvv"
	"github.com/cwbudde/algo-noise/stats/descriptive"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type dvvOptions struct {
	dvv     float64 // percent
	pairs   int
	seed    int64
	methods []string
}

func newDvVCmd(a *app) *cobra.Command {
	o := &dvvOptions{}
	cmd := &cobra.Command{
		Use:   "dvv",
		Short: "Recover a known velocity change from synthetic coda pairs",
		Long: `dvv builds synthetic coda pairs in the configured lapse window and band,
dilates the current trace by the requested dv/v and runs every selected
estimator over all pairs concurrently.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDvV(cmd, a, o)
		},
	}
	cmd.Flags().Float64Var(&o.dvv, "dvv", -0.2, "imposed velocity change in percent")
	cmd.Flags().IntVar(&o.pairs, "pairs", 4, "number of synthetic pairs per method")
	cmd.Flags().Int64Var(&o.seed, "seed", 1, "seed of the first synthetic pair")
	cmd.Flags().StringSliceVar(&o.methods, "method", nil, "estimator to run (repeatable, default all)")
	return cmd
}

// dvvRow is one line of the report.
type dvvRow struct {
	method dvv.Method
	dvv    float64
	err    float64
	failed int
}

func runDvV(cmd *cobra.Command, a *app, o *dvvOptions) error {
	if o.pairs < 1 {
		return core.Configf("noisecheck: --pairs must be >= 1: %d", o.pairs)
	}
	methods := dvv.Methods
	if len(o.methods) > 0 {
		methods = make([]dvv.Method, len(o.methods))
		for i, m := range o.methods {
			methods[i] = dvv.Method(m)
		}
	}

	pairs, err := syntheticPairs(a.cfg.DvVConfig().Params, o)
	if err != nil {
		return err
	}

	rows := make([]dvvRow, 0, len(methods))
	for _, m := range methods {
		cfg := a.cfg.DvVConfig()
		cfg.Method = m
		est, err := dvv.New(cfg, core.WithLogger(a.logger))
		if err != nil {
			return err
		}
		results, err := est.MeasurePairs(cmd.Context(), pairs, a.cfg.Workers)
		if err != nil {
			return err
		}
		rows = append(rows, summarize(m, results))
		a.logger.Debug("estimator done", zap.String("method", string(m)), zap.Int("pairs", len(results)))
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "imposed dv/v: %.3f%%  pairs: %d\n\n", o.dvv, o.pairs)
	fmt.Fprintln(w, "METHOD\tDV/V (%)\tERR (%)\tFAILED")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%d\n", r.method, r.dvv, r.err, r.failed)
	}
	return w.Flush()
}

// syntheticPairs returns coda pairs in the measurement band, capped at
// half Nyquist, with increasing seeds. The current trace is the reference
// dilated by o.dvv percent.
func syntheticPairs(p dvv.Params, o *dvvOptions) ([]dvv.Pair, error) {
	n := int(math.Round((p.Window.TMax - p.Window.TMin) / p.Dt))
	fmin, fmax := p.Band.FMin, p.Band.FMax
	if top := 0.25 / p.Dt; fmax > top {
		fmax = top
	}
	if fmin >= fmax {
		return nil, core.Configf("noisecheck: band [%g, %g] Hz too close to Nyquist for synthetics", p.Band.FMin, p.Band.FMax)
	}
	decay := (p.Window.TMax - p.Window.TMin) / 2

	pairs := make([]dvv.Pair, o.pairs)
	for i := range pairs {
		g, err := signal.NewGenerator(1/p.Dt, signal.WithSeed(o.seed+int64(i)))
		if err != nil {
			return nil, err
		}
		t := g.Times(p.Window.TMin, n)
		ref, err := g.Coda(t, fmin, fmax, decay)
		if err != nil {
			return nil, err
		}
		cur, err := signal.Dilate(t, ref, o.dvv/100)
		if err != nil {
			return nil, err
		}
		pairs[i] = dvv.Pair{Name: fmt.Sprintf("synthetic-%d", i), Ref: ref, Cur: cur}
	}
	return pairs, nil
}

// summarize averages the band estimates, or the per-frequency means, of
// the pairs that succeeded.
func summarize(m dvv.Method, results []dvv.PairResult) dvvRow {
	row := dvvRow{method: m}
	var vals, errs []float64
	for _, r := range results {
		if r.Err != nil {
			row.failed++
			continue
		}
		if fm := r.Result.PerFrequency; fm != nil {
			vals = append(vals, descriptive.NaNMean(fm.DvV))
			errs = append(errs, descriptive.NaNMean(fm.Err))
			continue
		}
		vals = append(vals, r.Result.DvV)
		errs = append(errs, r.Result.Err)
	}
	row.dvv = descriptive.NaNMean(vals)
	row.err = descriptive.NaNMean(errs)
	return row
}
