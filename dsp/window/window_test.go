package window

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-noise/internal/testutil"
)

func TestGenerateLengthsAndFinite(t *testing.T) {
	for _, typ := range []Type{TypeRectangular, TypeHann} {
		w := Generate(typ, 64)
		if len(w) != 64 {
			t.Fatalf("type=%v len=%d, want 64", typ, len(w))
		}
		testutil.RequireFinite(t, w)
	}
	if Generate(TypeHann, 0) != nil {
		t.Fatal("zero length should return nil")
	}
	if w := Generate(TypeHann, 1); w[0] != 0 {
		t.Fatalf("single-point Hann = %v, want 0", w[0])
	}
}

func TestHannSymmetricEndpoints(t *testing.T) {
	w := Generate(TypeHann, 11)
	if w[0] != 0 || math.Abs(w[10]) > 1e-15 {
		t.Fatalf("endpoints = %v, %v, want 0", w[0], w[10])
	}
	if math.Abs(w[5]-1) > 1e-15 {
		t.Fatalf("center = %v, want 1", w[5])
	}
	for i := 0; i < 5; i++ {
		if math.Abs(w[i]-w[10-i]) > 1e-15 {
			t.Fatalf("asymmetric at %d", i)
		}
	}
}

func TestRectangularIsFlat(t *testing.T) {
	for i, v := range Generate(TypeRectangular, 9) {
		if v != 1 {
			t.Fatalf("w[%d] = %v, want 1", i, v)
		}
	}
}

func TestCosineTaperEdges(t *testing.T) {
	w, err := CosineTaper(100, 0.15)
	if err != nil {
		t.Fatalf("CosineTaper: %v", err)
	}
	// int(100*0.15/2+0.5) = 8 samples per edge.
	if w[0] != 0 || w[99] != 0 {
		t.Fatalf("edges = %v, %v, want 0", w[0], w[99])
	}
	if math.Abs(w[7]-1) > 1e-15 || math.Abs(w[92]-1) > 1e-15 {
		t.Fatalf("edge ends = %v, %v, want 1", w[7], w[92])
	}
	for i := 8; i < 92; i++ {
		if w[i] != 1 {
			t.Fatalf("w[%d] = %v, want flat 1", i, w[i])
		}
	}
	for i := 0; i < 8; i++ {
		if math.Abs(w[i]-w[99-i]) > 1e-12 {
			t.Fatalf("taper not symmetric at %d", i)
		}
	}
}

func TestEdgeTaperCap(t *testing.T) {
	w, err := EdgeTaper(1000, 0.05, 20)
	if err != nil {
		t.Fatalf("EdgeTaper: %v", err)
	}
	if w[0] != 0 {
		t.Fatalf("w[0] = %v, want 0", w[0])
	}
	if w[20] != 1 || w[979] != 1 {
		t.Fatalf("taper longer than the 20-sample cap")
	}
	if w[19] >= 1 || w[980] >= 1 {
		t.Fatalf("expected tapered samples at the cap boundary")
	}
	for i := 0; i < 20; i++ {
		if math.Abs(w[i]-w[999-i]) > 1e-12 {
			t.Fatalf("edges not mirrored at %d: %v vs %v", i, w[i], w[999-i])
		}
	}

	if _, err := EdgeTaper(10, 0.6, 0); err == nil {
		t.Fatal("expected error for fraction > 0.5")
	}
}

func TestApplyCoefficientsInPlace(t *testing.T) {
	buf := []float64{2, 2, 2}
	if err := ApplyCoefficientsInPlace(buf, []float64{0, 0.5, 1}); err != nil {
		t.Fatalf("ApplyCoefficientsInPlace: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, buf, []float64{0, 1, 2}, 0)

	if err := ApplyCoefficientsInPlace(buf, []float64{1}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}
