//go:build fastmath

package stack

import "github.com/meko-christian/algo-approx"

// pow is x^p for x >= 0, evaluated as exp(p*ln x) with fast
// approximations.
func pow(x, p float64) float64 {
	switch {
	case p == 0:
		return 1
	case x <= 0:
		return 0
	case p == 1:
		return x
	}
	return approx.FastExp(p * approx.FastLog(x))
}
