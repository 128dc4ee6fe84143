package conv

import (
	"testing"

	"github.com/cwbudde/algo-noise/internal/testutil"
)

func BenchmarkDirect(b *testing.B) {
	a := testutil.DeterministicNoise(1, 1, 4096)
	k := testutil.DeterministicNoise(2, 1, 32)
	b.ReportAllocs()
	for range b.N {
		_, _ = Direct(a, k)
	}
}

func BenchmarkCorrelateFFT(b *testing.B) {
	x := testutil.DeterministicNoise(3, 1, 2000)
	y := testutil.DeterministicNoise(4, 1, 2000)
	b.ReportAllocs()
	for range b.N {
		_, _ = CorrelateFFT(x, y)
	}
}
