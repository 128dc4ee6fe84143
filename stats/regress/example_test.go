package regress_test

import (
	"fmt"

	"github.com/cwbudde/algo-noise/stats/regress"
)

func ExampleThroughOrigin() {
	lapse := []float64{10, 20, 30, 40}
	delay := []float64{0.011, 0.019, 0.031, 0.039}

	m, _, _ := regress.ThroughOrigin(lapse, delay, nil)
	fmt.Printf("dv/v = %.2f%%\n", -m*100)
	// Output:
	// dv/v = -0.10%
}
