package dvv

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-noise/dsp/core"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMeasurePairsKeepsOrder(t *testing.T) {
	e := mustEstimator(t, testConfig(MethodStretching))
	var pairs []Pair
	for _, name := range []string{"a", "b", "c", "d"} {
		ref, cur := codaPair(t, -0.002)
		pairs = append(pairs, Pair{Name: name, Ref: ref, Cur: cur})
	}
	pairs[2].Cur = pairs[2].Cur[:50]

	results, err := e.MeasurePairs(context.Background(), pairs, 2)
	if err != nil {
		t.Fatalf("MeasurePairs() error = %v", err)
	}
	if len(results) != len(pairs) {
		t.Fatalf("results = %d, want %d", len(results), len(pairs))
	}
	for i, r := range results {
		if r.Name != pairs[i].Name {
			t.Fatalf("result %d is %q, want %q", i, r.Name, pairs[i].Name)
		}
		if i == 2 {
			if r.Err == nil {
				t.Fatal("mismatched pair should carry an error")
			}
			continue
		}
		if r.Err != nil || math.Abs(r.Result.DvV+0.2) > 0.05 {
			t.Fatalf("pair %q = %+v, err %v", r.Name, r.Result.Measurement, r.Err)
		}
	}
}

func TestMeasurePairsCanceled(t *testing.T) {
	e := mustEstimator(t, testConfig(MethodStretching))
	ref, cur := codaPair(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.MeasurePairs(ctx, []Pair{{Name: "a", Ref: ref, Cur: cur}}, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("MeasurePairs() error = %v, want context.Canceled", err)
	}
}

func TestTooFewPointsWarns(t *testing.T) {
	obs, logs := observer.New(zap.WarnLevel)
	cfg := testConfig(MethodWCC)
	cfg.MovingWindow, cfg.SlideStep = 20, 8
	e, err := New(cfg, core.WithLogger(zap.New(obs)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ref, cur := codaPair(t, 0)
	if _, err := e.WCC(ref, cur); err != nil {
		t.Fatalf("WCC() error = %v", err)
	}
	entries := logs.FilterMessage("too few points for regression").All()
	if len(entries) != 1 {
		t.Fatalf("warnings = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["points"]; got != int64(2) {
		t.Fatalf("points field = %v, want 2", got)
	}
}
