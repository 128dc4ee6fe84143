//go:build !fastmath

package stack

import "math"

// pow is x^p for x >= 0.
func pow(x, p float64) float64 {
	return math.Pow(x, p)
}
