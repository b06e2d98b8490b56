package sim

import (
	"math"

	"github.com/juliablanchard/mizer/internal/params"
)

// InitialStateOpts tunes the equilibrium-like initial spectrum. The zero
// value selects the defaults: shape constant 0.35 and a scale of
// kappa/1000, an empirical heuristic kept configurable rather than fixed.
type InitialStateOpts struct {
	A     float64 // power-law shape constant; 0 means 0.35
	Scale float64 // overall density scale; 0 means kappa/1000
}

const defaultInitialA = 0.35

// InitialN estimates a starting density matrix from the parameters alone,
// as a truncated power law per species:
//
//	n(i, w) = scale * wInf_i^(2n-q-2+a) * w^(-n-a)
//
// with n and q the model's intake and search-volume exponents. Densities
// outside [wMin, wInf) are zero.
func InitialN(p *params.Params, opts InitialStateOpts) [][]float64 {
	a := opts.A
	if a == 0 {
		a = defaultInitialA
	}
	scale := opts.Scale
	if scale == 0 {
		scale = p.Model.Kappa / 1000
	}
	en := p.Model.N
	q := p.Model.Q

	n := make([][]float64, p.NumSpecies())
	for i, sp := range p.Species {
		n[i] = make([]float64, len(p.W))
		lead := scale * math.Pow(sp.WInf, 2*en-q-2+a)
		for j, w := range p.W {
			if j < p.WMinIdx[i] || w >= sp.WInf {
				continue
			}
			n[i][j] = lead * math.Pow(w, -en-a)
		}
	}
	return n
}

// InitialResource returns the default starting resource spectrum: the
// carrying capacity itself.
func InitialResource(p *params.Params) []float64 {
	return append([]float64(nil), p.CarryingCapacity...)
}
