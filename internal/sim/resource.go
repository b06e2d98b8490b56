package sim

import (
	"math"

	"github.com/juliablanchard/mizer/internal/rates"
)

// StepResource advances the resource spectrum by the exact solution of the
// semi-chemostat ODE over one step, holding predation mortality at its
// start-of-step value. The closed form stays stable however large the
// predation mortality is relative to dt.
func (s *Stepper) StepResource(cur, next []float64, r *rates.Rates, dt float64) {
	rr := s.p.ResourceRate
	cc := s.p.CarryingCapacity
	for k := range cur {
		total := rr[k] + r.ResourceMort[k]
		if total == 0 {
			next[k] = cur[k]
			continue
		}
		eq := rr[k] * cc[k] / total
		next[k] = eq - (eq-cur[k])*math.Exp(-total*dt)
	}
}
