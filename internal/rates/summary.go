package rates

import (
	"gonum.org/v1/gonum/floats"

	"github.com/juliablanchard/mizer/internal/params"
)

// Biomass integrates a species density row over the size grid,
// returning total biomass (sum of n*w*dw).
func Biomass(p *params.Params, n []float64) float64 {
	b := 0.0
	for j := range n {
		b += n[j] * p.W[j] * p.DW[j]
	}
	return b
}

// BiomassBySpecies returns the biomass of every species row.
func BiomassBySpecies(p *params.Params, n [][]float64) []float64 {
	out := make([]float64, len(n))
	for i := range n {
		out[i] = Biomass(p, n[i])
	}
	return out
}

// ResourceBiomass integrates the resource spectrum over the full grid.
func ResourceBiomass(p *params.Params, nResource []float64) float64 {
	wdw := make([]float64, len(p.WFull))
	for k := range wdw {
		wdw[k] = p.WFull[k] * p.DWFull[k]
	}
	return floats.Dot(nResource, wdw)
}

// Abundance returns the total number of individuals per species.
func Abundance(p *params.Params, n [][]float64) []float64 {
	out := make([]float64, len(n))
	for i := range n {
		out[i] = floats.Dot(n[i], p.DW)
	}
	return out
}
