package regress

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-noise/dsp/core"
)

func TestThroughOriginExact(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{-0.5, -1, -1.5, -2}
	m, em, err := ThroughOrigin(x, y, nil)
	if err != nil {
		t.Fatalf("ThroughOrigin: %v", err)
	}
	if math.Abs(m+0.5) > 1e-12 || em > 1e-12 {
		t.Fatalf("m=%v em=%v, want -0.5 and 0", m, em)
	}
}

func TestThroughOriginWeights(t *testing.T) {
	// The second point is an outlier; a tiny weight removes its pull.
	x := []float64{1, 2, 3}
	y := []float64{2, 40, 6}
	w := []float64{1, 1e-6, 1}
	m, _, err := ThroughOrigin(x, y, w)
	if err != nil {
		t.Fatalf("ThroughOrigin: %v", err)
	}
	if math.Abs(m-2) > 1e-6 {
		t.Fatalf("m = %v, want 2", m)
	}
}

func TestThroughOriginStdErr(t *testing.T) {
	x := []float64{1, 2}
	y := []float64{1, 3}
	m, em, err := ThroughOrigin(x, y, nil)
	if err != nil {
		t.Fatalf("ThroughOrigin: %v", err)
	}
	// m = (1 + 6) / 5; residuals 1-1.4, 3-2.8
	if math.Abs(m-1.4) > 1e-12 {
		t.Fatalf("m = %v", m)
	}
	want := math.Sqrt((0.16 + 0.04) / 1 / 5)
	if math.Abs(em-want) > 1e-12 {
		t.Fatalf("em = %v, want %v", em, want)
	}
}

func TestThroughOriginErrors(t *testing.T) {
	if _, _, err := ThroughOrigin([]float64{1}, []float64{1, 2}, nil); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	if _, _, err := ThroughOrigin(nil, nil, nil); !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, _, err := ThroughOrigin([]float64{0, 0}, []float64{1, 2}, nil); !errors.Is(err, core.ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput, got %v", err)
	}
}

func TestFiniteWeights(t *testing.T) {
	w := []float64{2, math.Inf(1), math.NaN()}
	FiniteWeights(w)
	if w[0] != 2 || w[1] != 1 || w[2] != 1 {
		t.Fatalf("w = %v", w)
	}
}
