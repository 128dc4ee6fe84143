package stack

import (
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-noise/dsp/core"
	"github.com/cwbudde/algo-noise/dsp/spectrum"
	"github.com/cwbudde/algo-noise/stats/descriptive"
	"gonum.org/v1/gonum/floats"
)

// NRootStack averages sign(x)*|x|^(1/p) and raises the result back to the
// p-th power keeping its sign.
func NRootStack(rows [][]float64, p float64) ([]float64, error) {
	n, m, err := shape(rows)
	if err != nil {
		return nil, err
	}
	if p <= 0 {
		return nil, core.Configf("stack: nroot power must be > 0: %g", p)
	}

	out := make([]float64, m)
	for _, r := range rows {
		for j, v := range r {
			out[j] += core.Sign(v) * pow(math.Abs(v), 1/p)
		}
	}
	for j := range out {
		d := out[j] / float64(n)
		out[j] = d * pow(math.Abs(d), p-1)
	}
	return out, nil
}

// AdaptiveFilter applies the adaptive covariance filter: every frequency
// of the linear stack is scaled by ((S1-S2)/(S2*(N-1)))^g, where
// S1 = |sum X_i|^2 and S2 = sum |X_i|^2 over the row spectra X_i. Negative
// gains are clamped to zero. A single row is returned unchanged.
func AdaptiveFilter(rows [][]float64, g float64) ([]float64, error) {
	n, m, err := shape(rows)
	if err != nil {
		return nil, err
	}
	if g <= 0 {
		return nil, core.Configf("stack: acf harshness must be > 0: %g", g)
	}
	if n == 1 {
		return slices.Clone(rows[0]), nil
	}

	plan, err := spectrum.NewPlan(core.NextPowerOf2(m))
	if err != nil {
		return nil, fmt.Errorf("stack: acf: %w", err)
	}
	nfft := plan.Len()

	sum := make([]complex128, nfft)
	s2 := make([]float64, nfft)
	for _, r := range rows {
		spec, err := plan.ForwardReal(r)
		if err != nil {
			return nil, fmt.Errorf("stack: acf: %w", err)
		}
		for k, c := range spec {
			sum[k] += c
			s2[k] += real(c)*real(c) + imag(c)*imag(c)
		}
	}

	filtered := make([]complex128, nfft)
	for k, c := range sum {
		s1 := real(c)*real(c) + imag(c)*imag(c)
		gain := 0.0
		if s2[k] > 0 {
			gain = pow(math.Max((s1-s2[k])/(s2[k]*float64(n-1)), 0), g)
		}
		filtered[k] = c * complex(gain/float64(n), 0)
	}

	out, err := plan.InverseReal(filtered)
	if err != nil {
		return nil, fmt.Errorf("stack: acf: %w", err)
	}
	return out[:m], nil
}

// SelectiveStack iterates a mean over the rows whose Pearson correlation
// with the current stack is at least minCC, starting from the linear
// stack. When no row qualifies the linear stack is returned with
// Fallback set.
func SelectiveStack(rows [][]float64, minCC, tolerance float64, maxIter int) (Selective, error) {
	_, m, err := shape(rows)
	if err != nil {
		return Selective{}, err
	}
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	linear := Mean(rows)
	next := linear
	var selected []int
	res := math.Inf(1)
	steps := 0
	for res > tolerance && steps <= maxIter {
		selected = selected[:0]
		for i, r := range rows {
			if descriptive.Pearson(next, r) >= minCC {
				selected = append(selected, i)
			}
		}
		steps++
		if len(selected) == 0 {
			return Selective{Stack: linear, Iterations: steps, Fallback: true}, nil
		}

		picked := make([][]float64, len(selected))
		for k, i := range selected {
			picked[k] = rows[i]
		}
		prev := next
		next = Mean(picked)
		res = floats.Distance(next, prev, 2) / (floats.Norm(next, 2) * float64(m))
	}

	return Selective{Stack: next, Selected: slices.Clone(selected), Iterations: steps}, nil
}

func shape(rows [][]float64) (n, m int, err error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, 0, fmt.Errorf("stack: empty batch: %w", core.ErrInsufficientData)
	}
	m = len(rows[0])
	for i, r := range rows {
		if len(r) != m {
			return 0, 0, fmt.Errorf("stack: row %d has %d samples, want %d", i, len(r), m)
		}
	}
	return len(rows), m, nil
}
