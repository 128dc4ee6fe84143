// Package descriptive computes summary statistics of traces: location,
// spread, robust spread and peak measures used to screen noise segments
// and correlation windows.
package descriptive

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats holds summary statistics of one trace.
type Stats struct {
	Length  int
	Mean    float64
	Std     float64 // population standard deviation
	Median  float64
	MAD     float64 // median absolute deviation, unscaled
	RMS     float64
	Peak    float64 // max |x|
	PeakPos int
}

// AmplitudeRatio returns max|x| / std, the measure used to flag transients
// in a segment against the spread of the whole record. A zero std yields
// +Inf.
func AmplitudeRatio(x []float64, std float64) float64 {
	if std == 0 {
		return math.Inf(1)
	}
	return MaxAbs(x) / std
}

// Calculate computes all statistics of x. An empty trace yields NaN
// location and spread fields.
func Calculate(x []float64) Stats {
	n := len(x)
	if n == 0 {
		nan := math.NaN()
		return Stats{Mean: nan, Std: nan, Median: nan, MAD: nan, RMS: nan, PeakPos: -1}
	}

	peakPos := MaxAbsIndex(x)
	return Stats{
		Length:  n,
		Mean:    stat.Mean(x, nil),
		Std:     PopStd(x),
		Median:  Median(x),
		MAD:     MAD(x),
		RMS:     RMS(x),
		Peak:    math.Abs(x[peakPos]),
		PeakPos: peakPos,
	}
}

// Median returns the median of x, averaging the two central values for
// even lengths. x is not modified. An empty slice yields NaN.
func Median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	s := slices.Clone(x)
	slices.Sort(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return 0.5 * (s[n/2-1] + s[n/2])
}

// MAD returns median(|x - median(x)|).
func MAD(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	med := Median(x)
	dev := make([]float64, len(x))
	for i, v := range x {
		dev[i] = math.Abs(v - med)
	}
	return Median(dev)
}

// PopStd returns the population standard deviation of x.
func PopStd(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	_, std := stat.PopMeanStdDev(x, nil)
	return std
}

// RMS returns the root mean square of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Norm(x, 2) / math.Sqrt(float64(len(x)))
}

// MaxAbs returns max |x|, or 0 for an empty slice.
func MaxAbs(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Abs(x[MaxAbsIndex(x)])
}

// MaxAbsIndex returns the index of the first sample with the largest
// magnitude, or -1 for an empty slice.
func MaxAbsIndex(x []float64) int {
	idx := -1
	best := -1.0
	for i, v := range x {
		if a := math.Abs(v); a > best {
			best = a
			idx = i
		}
	}
	return idx
}

// Pearson returns the Pearson correlation coefficient of x and y. Constant
// inputs yield NaN.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// NaNArgMax returns the index of the largest non-NaN value, or -1 when all
// values are NaN.
func NaNArgMax(x []float64) int {
	idx := -1
	for i, v := range x {
		if math.IsNaN(v) {
			continue
		}
		if idx < 0 || v > x[idx] {
			idx = i
		}
	}
	return idx
}

// NaNMean returns the mean of the non-NaN values of x, or NaN when there
// are none.
func NaNMean(x []float64) float64 {
	var sum float64
	var n int
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
