package spectrum

import (
	"github.com/cwbudde/algo-noise/dsp/window"
)

// MovingAverage returns the centered running mean of a over 2*halfWidth+1
// samples. The input is extended by repeating its first and last halfWidth
// samples, so the output keeps the input length. halfWidth is clamped to
// len(a).
func MovingAverage(a []float64, halfWidth int) []float64 {
	n := len(a)
	if n == 0 {
		return nil
	}
	out := make([]float64, n)
	if halfWidth <= 0 {
		copy(out, a)
		return out
	}
	if halfWidth > n {
		halfWidth = n
	}

	padded := make([]float64, 0, n+2*halfWidth)
	padded = append(padded, a[:halfWidth]...)
	padded = append(padded, a...)
	padded = append(padded, a[n-halfWidth:]...)

	width := 2*halfWidth + 1
	sum := 0.0
	for i := 0; i < width; i++ {
		sum += padded[i]
	}
	out[0] = sum / float64(width)
	for i := 1; i < n; i++ {
		sum += padded[i+width-1] - padded[i-1]
		out[i] = sum / float64(width)
	}
	return out
}

// Smooth convolves x with a normalized window of 2*halfWin+1 samples. The
// borders are handled by reflecting the signal, and the output has the same
// length as x. kind selects the window shape; only window.TypeHann and
// window.TypeRectangular are meaningful here.
func Smooth(x []float64, kind window.Type, halfWin int) []float64 {
	if len(x) == 0 {
		return nil
	}
	if halfWin <= 0 {
		return append([]float64(nil), x...)
	}

	idx, w, start, count := smoothingPlan(len(x), kind, halfWin)
	out := make([]float64, count)
	for j := range out {
		sum := 0.0
		for k, wk := range w {
			sum += wk * x[idx[start+j+k]]
		}
		out[j] = sum
	}
	return out
}

// SmoothComplex is Smooth for complex spectra.
func SmoothComplex(x []complex128, kind window.Type, halfWin int) []complex128 {
	if len(x) == 0 {
		return nil
	}
	if halfWin <= 0 {
		return append([]complex128(nil), x...)
	}

	idx, w, start, count := smoothingPlan(len(x), kind, halfWin)
	out := make([]complex128, count)
	for j := range out {
		var sum complex128
		for k, wk := range w {
			sum += complex(wk, 0) * x[idx[start+j+k]]
		}
		out[j] = sum
	}
	return out
}

// smoothingPlan maps the reflected, padded signal onto source indices and
// returns the normalized window together with the first valid output
// position and the number of outputs.
func smoothingPlan(n int, kind window.Type, halfWin int) (idx []int, w []float64, start, count int) {
	wl := 2*halfWin + 1

	// Left reflection: x[wl-1], ..., x[1]; right reflection: x[n-1], ...,
	// x[n-wl+1]. Both are clipped to the available samples.
	leftTop := wl - 1
	if leftTop > n-1 {
		leftTop = n - 1
	}
	rightBottom := n - wl + 1
	if rightBottom < 0 {
		rightBottom = 0
	}

	idx = make([]int, 0, n+2*wl)
	for i := leftTop; i >= 1; i-- {
		idx = append(idx, i)
	}
	for i := 0; i < n; i++ {
		idx = append(idx, i)
	}
	for i := n - 1; i >= rightBottom; i-- {
		idx = append(idx, i)
	}

	w = window.Generate(kind, wl)
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	for i := range w {
		w[i] /= sum
	}

	valid := len(idx) - wl + 1
	if valid <= 2*halfWin {
		return idx, w, 0, 0
	}
	return idx, w, halfWin, valid - 2*halfWin
}
