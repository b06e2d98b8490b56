// Package rates turns the current model state into the per-step rate
// arrays that drive the size-spectrum dynamics: feeding level, predation,
// mortality, growth, and recruitment. Compute is a pure function of its
// inputs; it never mutates the state it is given.
package rates

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/juliablanchard/mizer/internal/params"
)

// Rates holds every rate array for one time step.
type Rates struct {
	// FeedingLevel[i][j]: fraction of max intake achieved, in [0,1).
	FeedingLevel [][]float64
	// PredRate[i][k]: predation pressure exerted by species i on
	// full-grid size bin k.
	PredRate [][]float64
	// PredMort, FishMort, TotalMort are species x size on the species
	// grid; TotalMort additionally includes background mortality.
	PredMort  [][]float64
	FishMort  [][]float64
	TotalMort [][]float64
	// ResourceMort[k]: predation mortality on the resource spectrum.
	ResourceMort []float64
	// Growth[i][j]: somatic growth rate in weight per time.
	Growth [][]float64
	// RDI and RDD: density-independent and density-dependent recruitment
	// flux per species (numbers into the smallest bin per time).
	RDI []float64
	RDD []float64
}

const sexRatio = 0.5

// Compute evaluates all rates for the given densities and effort row.
// effort is indexed by the canonical gear order of p. It returns an error
// if any produced value is non-finite, naming the species responsible.
func Compute(p *params.Params, n [][]float64, nResource []float64, effort []float64) (*Rates, error) {
	ns := p.NumSpecies()
	nW := len(p.W)
	nF := len(p.WFull)

	if len(n) != ns {
		return nil, fmt.Errorf("density matrix has %d rows, want %d species", len(n), ns)
	}
	if len(nResource) != nF {
		return nil, fmt.Errorf("resource vector has length %d, want %d", len(nResource), nF)
	}
	if len(effort) != len(p.GearNames) {
		return nil, fmt.Errorf("effort row has length %d, want %d gears", len(effort), len(p.GearNames))
	}

	r := &Rates{
		FeedingLevel: makeMatrix(ns, nW),
		PredRate:     makeMatrix(ns, nF),
		PredMort:     makeMatrix(ns, nW),
		FishMort:     makeMatrix(ns, nW),
		TotalMort:    makeMatrix(ns, nW),
		ResourceMort: make([]float64, nF),
		Growth:       makeMatrix(ns, nW),
		RDI:          make([]float64, ns),
		RDD:          make([]float64, ns),
	}

	// Total prey biomass density per full-grid bin: the resource plus
	// every species mapped onto the tail of the full grid.
	preyW := make([]float64, nF)
	for k := range preyW {
		preyW[k] = nResource[k]
	}
	for i := 0; i < ns; i++ {
		for j := 0; j < nW; j++ {
			preyW[p.RefIdx+j] += n[i][j]
		}
	}
	for k := range preyW {
		preyW[k] *= p.WFull[k] * p.DWFull[k]
	}

	alpha := p.Model.Alpha
	for i := 0; i < ns; i++ {
		sp := &p.Species[i]
		for j := 0; j < nW; j++ {
			// Available energy is the kernel-weighted prey biomass.
			avail := floats.Dot(p.PredKernel[i][j], preyW)
			enc := p.SearchVol[i][j] * avail
			f := enc / (enc + p.IntakeMax[i][j])
			r.FeedingLevel[i][j] = f

			e := alpha*f*p.IntakeMax[i][j] - p.Metab[i][j]
			if e < 0 {
				e = 0
			}
			r.Growth[i][j] = e * (1 - p.Psi[i][j])

			rdiW := n[i][j] * e * p.Psi[i][j] * p.DW[j]
			r.RDI[i] += rdiW

			// Consumption not yet satisfied drives predation on the
			// bins this predator feeds from.
			pressure := (1 - f) * p.SearchVol[i][j] * n[i][j] * p.DW[j]
			if pressure != 0 {
				floats.AddScaled(r.PredRate[i], pressure, p.PredKernel[i][j])
			}
		}
		r.RDI[i] *= sexRatio * sp.Erepro / p.W[p.WMinIdx[i]]
	}

	for i := 0; i < ns; i++ {
		floats.Add(r.ResourceMort, r.PredRate[i])
	}

	for i := 0; i < ns; i++ {
		sp := &p.Species[i]
		for j := 0; j < nW; j++ {
			m2 := 0.0
			for ip := 0; ip < ns; ip++ {
				m2 += p.Interaction[ip][i] * r.PredRate[ip][p.RefIdx+j]
			}
			r.PredMort[i][j] = m2

			fm := 0.0
			for g := range p.GearNames {
				fm += effort[g] * p.Catchability[g][i] * p.Selectivity[g][i][j]
			}
			r.FishMort[i][j] = fm

			r.TotalMort[i][j] = m2 + fm + sp.Z0
		}

		if sp.RMax > 0 {
			r.RDD[i] = r.RDI[i] * sp.RMax / (r.RDI[i] + sp.RMax)
		} else {
			r.RDD[i] = r.RDI[i]
		}
	}

	for i := 0; i < ns; i++ {
		if !finite(r.Growth[i]) || !finite(r.TotalMort[i]) || !isFinite(r.RDD[i]) {
			return nil, fmt.Errorf("non-finite rates for species %s", p.Species[i].Name)
		}
	}
	if !finite(r.ResourceMort) {
		return nil, fmt.Errorf("non-finite resource predation mortality")
	}

	return r, nil
}

func finite(v []float64) bool {
	for _, x := range v {
		if !isFinite(x) {
			return false
		}
	}
	return true
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func makeMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}
