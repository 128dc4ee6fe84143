package descriptive

import (
	"testing"

	"github.com/cwbudde/algo-noise/internal/testutil"
)

func BenchmarkCalculate(b *testing.B) {
	x := testutil.DeterministicNoise(1, 1, 36000)
	b.ReportAllocs()
	for range b.N {
		_ = Calculate(x)
	}
}
