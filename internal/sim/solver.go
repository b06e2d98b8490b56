package sim

import (
	"github.com/juliablanchard/mizer/internal/params"
	"github.com/juliablanchard/mizer/internal/rates"
)

// Stepper advances the density matrix by one internal time step using an
// implicit upwind discretization of growth in size. Upwinding makes the
// system lower-bidiagonal, so each species row is solved by forward
// substitution with no general linear-solve routine.
type Stepper struct {
	p *params.Params
}

// NewStepper returns a stepper bound to a parameter set.
func NewStepper(p *params.Params) *Stepper {
	return &Stepper{p: p}
}

// Step writes the advanced densities into next. cur and next must be
// species x size with the shape of p; rows are independent, so next may
// not alias cur.
func (s *Stepper) Step(cur, next [][]float64, r *rates.Rates, dt float64) {
	for i := range cur {
		s.stepSpecies(i, cur[i], next[i], r, dt)
	}
}

// stepSpecies solves one species row. Bins below the species' minimum
// size stay zero; recruitment enters through the boundary bin.
func (s *Stepper) stepSpecies(i int, cur, next []float64, r *rates.Rates, dt float64) {
	p := s.p
	j0 := p.WMinIdx[i]
	g := r.Growth[i]
	z := r.TotalMort[i]

	for j := 0; j < j0; j++ {
		next[j] = 0
	}

	diag := 1 + g[j0]*dt/p.DW[j0] + z[j0]*dt
	next[j0] = (cur[j0] + r.RDD[i]*dt/p.DW[j0]) / diag

	for j := j0 + 1; j < len(cur); j++ {
		sub := -g[j-1] * dt / p.DW[j]
		diag = 1 + g[j]*dt/p.DW[j] + z[j]*dt
		next[j] = (cur[j] - sub*next[j-1]) / diag
	}
}
