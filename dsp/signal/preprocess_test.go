package signal

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/internal/testutil"
)

func TestDemean(t *testing.T) {
	x := []float64{1, 2, 3, 6}
	Demean(x)
	testutil.RequireSliceNearlyEqual(t, x, []float64{-2, -1, 0, 3}, 1e-12)
}

func TestDetrendRemovesLine(t *testing.T) {
	x := make([]float64, 50)
	for i := range x {
		x[i] = 3 + 0.5*float64(i)
	}
	Detrend(x)
	for i, v := range x {
		if math.Abs(v) > 1e-9 {
			t.Fatalf("x[%d] = %v, want 0", i, v)
		}
	}
}

func TestZScore(t *testing.T) {
	x := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if err := ZScore(x); err != nil {
		t.Fatalf("ZScore: %v", err)
	}
	// Population std of the input is 2, mean is 5.
	testutil.RequireSliceNearlyEqual(t, x, []float64{-1.5, -0.5, -0.5, -0.5, 0, 0, 1, 2}, 1e-12)
}

func TestZScoreDegenerate(t *testing.T) {
	if err := ZScore([]float64{3, 3, 3}); !errors.Is(err, core.ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput, got %v", err)
	}
	if err := ZScore(nil); !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

