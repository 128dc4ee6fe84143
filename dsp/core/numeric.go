package core

import "math"

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// NextPowerOf2 returns the smallest power of two >= n. n <= 1 yields 1.
func NextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Sign returns -1, 0 or 1 according to the sign of x. NaN maps to 0.
func Sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// Round rounds half to even, matching the rounding of bin counts and window
// lengths used throughout the correlation and stacking stages.
func Round(x float64) int {
	return int(math.RoundToEven(x))
}
