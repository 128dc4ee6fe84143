package stack

import (
	"math"

	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/stats/descriptive"
	"gonum.org/v1/gonum/floats"
)

// RobustStacker computes a stack that down-weights rows inconsistent with
// the consensus.
type RobustStacker interface {
	RobustStack(rows [][]float64, tolerance float64) (Robust, error)
}

// PavlisVernon is the iteratively reweighted stack of Pavlis and Vernon
// (2010). Starting from the column median, each row is weighted by how
// well it projects onto the current stack relative to its residual.
type PavlisVernon struct {
	// MaxIterations bounds the reweighting passes; 0 selects 10.
	MaxIterations int
}

const (
	defaultMaxIterations = 10
	residualFloor        = 1e-15
)

// RobustStack iterates until the relative L1 change of the stack drops to
// tolerance or the iteration bound is reached.
func (pv PavlisVernon) RobustStack(rows [][]float64, tolerance float64) (Robust, error) {
	n, m, err := shape(rows)
	if err != nil {
		return Robust{}, err
	}
	maxIter := pv.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	col := make([]float64, n)
	next := make([]float64, m)
	for j := range m {
		for i := range n {
			col[i] = rows[i][j]
		}
		next[j] = descriptive.Median(col)
	}

	w := make([]float64, n)
	resid := make([]float64, m)
	res := math.Inf(1)
	steps := 0
	for res > tolerance && steps <= maxIter {
		cur := next
		for i, d := range rows {
			dot := floats.Dot(cur, d)
			floats.AddScaledTo(resid, d, -dot, cur)
			rn := floats.Norm(resid, 2)
			if rn < residualFloor {
				w[i] = 0
				continue
			}
			w[i] = math.Abs(dot) / floats.Norm(d, 2) / rn
		}
		normalizeWeights(w)

		next = make([]float64, m)
		for i, d := range rows {
			floats.AddScaled(next, w[i], d)
		}
		res = floats.Distance(next, cur, 1) / floats.Norm(next, 2) / float64(n)
		steps++
	}

	return Robust{Stack: next, Weights: append([]float64(nil), w...), Iterations: steps}, nil
}

// normalizeWeights clamps non-finite weights to 1 and scales the weights to
// unit sum. All-zero weights become uniform.
func normalizeWeights(w []float64) {
	for i, v := range w {
		if !core.IsFinite(v) {
			w[i] = 1
		}
	}
	sum := floats.Sum(w)
	if sum == 0 {
		for i := range w {
			w[i] = 1 / float64(len(w))
		}
		return
	}
	floats.Scale(1/sum, w)
}
