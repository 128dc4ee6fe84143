package stack

import (
	"fmt"
	"math/cmplx"

	"github.com/cwbudde/algo-noise/dsp/spectrum"
)

// PhaseWeightedStacker computes a stack weighted by instantaneous phase
// coherence across rows.
type PhaseWeightedStacker interface {
	PhaseWeightedStack(rows [][]float64, sampleRate float64) ([]float64, error)
}

// SchimmelPaulssen is the phase-weighted stack of Schimmel and Paulssen
// (1997): the linear stack scaled sample by sample by
// |mean(exp(i*phi))|^Power.
type SchimmelPaulssen struct {
	// Power sharpens the phase weight; 0 selects 2.
	Power float64
}

// PhaseWeightedStack stacks rows. The sample rate does not enter the
// estimator; it is accepted so alternative implementations can filter.
func (sp SchimmelPaulssen) PhaseWeightedStack(rows [][]float64, _ float64) ([]float64, error) {
	n, m, err := shape(rows)
	if err != nil {
		return nil, err
	}
	power := sp.Power
	if power <= 0 {
		power = 2
	}

	phasor := make([]complex128, m)
	for _, r := range rows {
		a, err := spectrum.Analytic(r)
		if err != nil {
			return nil, fmt.Errorf("stack: pws: %w", err)
		}
		for j, c := range a {
			if c == 0 {
				phasor[j] += 1
				continue
			}
			phasor[j] += c / complex(cmplx.Abs(c), 0)
		}
	}

	out := Mean(rows)
	inv := complex(1/float64(n), 0)
	for j := range out {
		out[j] *= pow(cmplx.Abs(phasor[j]*inv), power)
	}
	return out, nil
}
