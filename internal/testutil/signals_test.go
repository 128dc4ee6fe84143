package testutil

import (
	"math"
	"testing"
)

func TestDeterministicSine(t *testing.T) {
	s := DeterministicSine(1, 4, 2, 5)
	RequireSliceNearlyEqual(t, s, []float64{0, 2, 0, -2, 0}, 1e-12)
}

func TestDeterministicNoiseIsSeeded(t *testing.T) {
	a := DeterministicNoise(42, 0.5, 64)
	b := DeterministicNoise(42, 0.5, 64)
	RequireSliceNearlyEqual(t, a, b, 0)
	for i, v := range a {
		if math.Abs(v) > 0.5 {
			t.Fatalf("sample %d = %v exceeds amplitude", i, v)
		}
	}
	if c := DeterministicNoise(43, 0.5, 64); c[0] == a[0] && c[1] == a[1] {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestDelayedNoise(t *testing.T) {
	early, late := DelayedNoise(7, 1, 100, 15)
	if len(early) != 100 || len(late) != 100 {
		t.Fatalf("lengths %d, %d", len(early), len(late))
	}
	RequireSliceNearlyEqual(t, late[15:], early[:85], 0)
}

func TestImpulse(t *testing.T) {
	RequireSliceNearlyEqual(t, Impulse(4, 2), []float64{0, 0, 1, 0}, 0)
	RequireSliceNearlyEqual(t, Impulse(3, 9), []float64{0, 0, 0}, 0)
}

func TestConstantTraces(t *testing.T) {
	RequireSliceNearlyEqual(t, DC(0.5, 3), []float64{0.5, 0.5, 0.5}, 0)
}
