package dtw

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-noise/dsp/core"
)

// Norm selects the per-sample misfit.
type Norm int

const (
	// NormL2 uses squared differences.
	NormL2 Norm = iota
	// NormL1 uses absolute differences.
	NormL1
)

// Direction selects the sweep direction over samples.
type Direction int

const (
	// Forward sweeps from the first sample to the last.
	Forward Direction = 1
	// Backward sweeps from the last sample to the first.
	Backward Direction = -1
)

// ErrEmptySurface is returned when a surface has no samples or no lags.
var ErrEmptySurface = errors.New("dtw: empty surface")

func (d Direction) inc() int {
	if d > 0 {
		return 1
	}
	return -1
}

// ErrorFunction returns the misfit surface e[i][l+maxLag] between cur[i]
// and ref[i+l] for l in [-maxLag, maxLag]. Where i+l falls outside the
// trace, the value at the nearest valid sample of the same lag is used.
func ErrorFunction(cur, ref []float64, maxLag int, norm Norm) ([][]float64, error) {
	n := len(cur)
	if len(ref) != n {
		return nil, fmt.Errorf("dtw: traces of %d and %d samples", n, len(ref))
	}
	if n == 0 {
		return nil, ErrEmptySurface
	}
	if maxLag < 0 || maxLag >= n {
		return nil, core.Configf("dtw: lag %d must be in [0, %d)", maxLag, n)
	}
	if norm != NormL2 && norm != NormL1 {
		return nil, core.Configf("dtw: unknown norm %d", norm)
	}

	nLag := 2*maxLag + 1
	errs := make([][]float64, n)
	for i := range errs {
		errs[i] = make([]float64, nLag)
	}

	for l := -maxLag; l <= maxLag; l++ {
		col := l + maxLag
		for i := range n {
			j := i + l
			if j < 0 || j >= n {
				continue
			}
			d := cur[i] - ref[j]
			if norm == NormL1 {
				errs[i][col] = math.Abs(d)
			} else {
				errs[i][col] = d * d
			}
		}
		for i := range n {
			switch {
			case i+l < 0:
				errs[i][col] = errs[-l][col]
			case i+l > n-1:
				errs[i][col] = errs[n-l-1][col]
			}
		}
	}

	return errs, nil
}

// Accumulate sweeps the misfit surface in direction dir and returns the
// accumulated distance surface. b >= 1 bounds the strain: a lag change of
// one is allowed only every b samples, and the skipped samples contribute
// their misfit at the new lag.
func Accumulate(dir Direction, errs [][]float64, b int) ([][]float64, error) {
	n, nLag, err := surfaceShape(errs)
	if err != nil {
		return nil, err
	}
	if b < 1 {
		return nil, core.Configf("dtw: strain limit b must be >= 1, got %d", b)
	}

	inc := dir.inc()
	begin, end := 0, n-1
	if inc < 0 {
		begin, end = n-1, 0
	}

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, nLag)
	}

	for i := begin; ; i += inc {
		ji := clampIndex(i-inc, n)
		jb := clampIndex(i-inc*b, n)
		for l := range nLag {
			lm, lp := max(l-1, 0), min(l+1, nLag-1)
			minus := dist[jb][lm]
			straight := dist[ji][l]
			plus := dist[jb][lp]
			for k := ji; k != jb; k -= inc {
				minus += errs[k][lm]
				plus += errs[k][lp]
			}
			dist[i][l] = errs[i][l] + math.Min(minus, math.Min(straight, plus))
		}
		if i == end {
			break
		}
	}

	return dist, nil
}

// Backtrack follows the minimum-distance path through dist, starting at the
// end selected by dir, and returns the integer shift of every sample. lmin
// is the lag of column zero, -maxLag for surfaces from ErrorFunction.
// Ties prefer keeping the lag, then decreasing it.
func Backtrack(dir Direction, dist, errs [][]float64, lmin, b int) ([]int, error) {
	n, nLag, err := surfaceShape(dist)
	if err != nil {
		return nil, err
	}
	if len(errs) != n || len(errs[0]) != nLag {
		return nil, fmt.Errorf("dtw: distance and error surfaces differ in shape")
	}
	if b < 1 {
		return nil, core.Configf("dtw: strain limit b must be >= 1, got %d", b)
	}

	inc := dir.inc()
	begin, end := 0, n-1
	if inc < 0 {
		begin, end = n-1, 0
	}

	shifts := make([]int, n)
	l := argMin(dist[begin])
	shifts[begin] = l + lmin

	for i := begin; i != end; {
		ji := clampIndex(i+inc, n)
		jb := clampIndex(i+inc*b, n)
		lm, lp := max(l-1, 0), min(l+1, nLag-1)

		minus := dist[jb][lm]
		straight := dist[ji][l]
		plus := dist[jb][lp]
		for k := ji; k != jb; k += inc {
			minus += errs[k][lm]
			plus += errs[k][lp]
		}

		changed := false
		if best := math.Min(minus, math.Min(straight, plus)); best != straight {
			next := lp
			if best == minus {
				next = lm
			}
			changed = next != l
			l = next
		}

		i += inc
		shifts[i] = l + lmin

		if changed {
			for k := ji; k != jb && i != end; k += inc {
				i += inc
				shifts[i] = l + lmin
			}
		}
	}

	return shifts, nil
}

// Warp runs the full error, accumulation and backtracking chain for cur
// against ref and returns the per-sample shifts in samples together with
// the accumulated distance surface. The backtrack runs opposite to dir.
func Warp(cur, ref []float64, maxLag, b int, dir Direction, norm Norm) ([]int, [][]float64, error) {
	errs, err := ErrorFunction(cur, ref, maxLag, norm)
	if err != nil {
		return nil, nil, err
	}
	dist, err := Accumulate(dir, errs, b)
	if err != nil {
		return nil, nil, err
	}
	shifts, err := Backtrack(-dir, dist, errs, -maxLag, b)
	if err != nil {
		return nil, nil, err
	}
	return shifts, dist, nil
}

func surfaceShape(s [][]float64) (n, nLag int, err error) {
	if len(s) == 0 || len(s[0]) == 0 {
		return 0, 0, ErrEmptySurface
	}
	nLag = len(s[0])
	for i, row := range s {
		if len(row) != nLag {
			return 0, 0, fmt.Errorf("dtw: ragged surface at sample %d", i)
		}
	}
	return len(s), nLag, nil
}

func clampIndex(i, n int) int {
	return max(0, min(n-1, i))
}

func argMin(x []float64) int {
	idx := 0
	for i, v := range x {
		if v < x[idx] {
			idx = i
		}
	}
	return idx
}
