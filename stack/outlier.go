package stack

import (
	"math"

	"github.com/cwbudde/algo-noise/stats/descriptive"
)

// OutlierFactor is the multiple of the batch median peak at which a row is
// rejected.
const OutlierFactor = 20

// Peaks returns max |row| for every row.
func Peaks(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = descriptive.MaxAbs(r)
	}
	return out
}

// Keep applies the outlier rule to per-row peak amplitudes and returns the
// indices of the rows that survive: 0 < peak < OutlierFactor*median(peaks).
func Keep(peaks []float64) []int {
	if len(peaks) == 0 {
		return nil
	}
	limit := OutlierFactor * descriptive.Median(peaks)
	keep := make([]int, 0, len(peaks))
	for i, p := range peaks {
		if p > 0 && p < limit && !math.IsNaN(p) {
			keep = append(keep, i)
		}
	}
	return keep
}

// Mean returns the elementwise mean of rows. All rows must share a length.
func Mean(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([]float64, len(rows[0]))
	for _, r := range rows {
		for j, v := range r {
			out[j] += v
		}
	}
	inv := 1 / float64(len(rows))
	for j := range out {
		out[j] *= inv
	}
	return out
}
