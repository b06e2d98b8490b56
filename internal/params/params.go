// Package params builds and validates the parameter set of a multi-species
// size-spectrum model: the size grids, per-species traits, fishing gears,
// and the kernel arrays precomputed from them.
package params

import (
	"fmt"
	"math"
)

// Params is the fully assembled, read-only parameter set consumed by the
// rate engine and the simulation loop. Construct it with New or LoadFile;
// the precomputed arrays must not be mutated afterwards.
type Params struct {
	Model   ModelParams
	Species []SpeciesParams

	// Species size grid: bin midpoint weights and widths, log-spaced.
	W  []float64
	DW []float64

	// Extended grid shared with the resource spectrum. Its last len(W)
	// entries coincide with W; RefIdx is the offset of W[0] in WFull.
	WFull  []float64
	DWFull []float64
	RefIdx int

	// WMinIdx[i] is the first bin of W holding species i (w >= WMin).
	WMinIdx []int

	// Kernels, indexed species x size.
	IntakeMax [][]float64
	SearchVol [][]float64
	Metab     [][]float64
	Psi       [][]float64

	// PredKernel[i][j][k]: preference of a species-i predator in size
	// bin j for prey in full-grid bin k.
	PredKernel [][][]float64

	// Interaction[i][j]: availability of species j to predator species i.
	Interaction [][]float64

	// Fishing gears in canonical order with per-gear arrays.
	GearNames    []string
	Catchability [][]float64   // gear x species
	Selectivity  [][][]float64 // gear x species x size

	// Resource spectrum: carrying capacity and regeneration rate per
	// full-grid bin.
	CarryingCapacity []float64
	ResourceRate     []float64
}

// New assembles a parameter set from model settings and a species table,
// filling trait defaults and precomputing all kernel arrays.
func New(model ModelParams, species []SpeciesParams) (*Params, error) {
	if len(species) == 0 {
		return nil, fmt.Errorf("species table is empty")
	}
	if model.NumSizeBins == 0 {
		model.NumSizeBins = DefaultNumSizeBins
	}
	if model.Lambda == 0 {
		model.Lambda = 2 + model.Q - model.N
	}
	for i := range species {
		if species[i].Name == "" {
			return nil, fmt.Errorf("species %d has no name", i)
		}
		if species[i].WInf <= 0 {
			return nil, fmt.Errorf("species %s: w_inf must be positive, got %g", species[i].Name, species[i].WInf)
		}
	}

	sp := make([]SpeciesParams, len(species))
	copy(sp, species)
	for i := range sp {
		sp[i].applyDefaults(model)
	}

	p := &Params{Model: model, Species: sp}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.buildGrids()
	p.precompute()
	return p, nil
}

// Validate checks the per-species preconditions. It is also re-run by the
// simulation loop before stepping so a hand-edited Params fails early.
func (p *Params) Validate() error {
	if len(p.Species) == 0 {
		return fmt.Errorf("species table is empty")
	}
	if p.Model.NumSizeBins < 2 {
		return fmt.Errorf("num_size_bins must be at least 2, got %d", p.Model.NumSizeBins)
	}
	if p.Model.Kappa <= 0 {
		return fmt.Errorf("kappa must be positive, got %g", p.Model.Kappa)
	}
	if p.Model.RResource <= 0 {
		return fmt.Errorf("r_resource must be positive, got %g", p.Model.RResource)
	}
	if p.Model.MinWResource <= 0 {
		return fmt.Errorf("min_w_resource must be positive, got %g", p.Model.MinWResource)
	}
	for _, s := range p.Species {
		if s.WMin <= 0 || s.WMat <= 0 {
			return fmt.Errorf("species %s: w_min and w_mat must be positive", s.Name)
		}
		if s.WMin >= s.WInf {
			return fmt.Errorf("species %s: w_min %g must be below w_inf %g", s.Name, s.WMin, s.WInf)
		}
		if s.WMat >= s.WInf {
			return fmt.Errorf("species %s: w_mat %g must be below w_inf %g", s.Name, s.WMat, s.WInf)
		}
		if s.Beta <= 0 || s.Sigma <= 0 {
			return fmt.Errorf("species %s: beta and sigma must be positive", s.Name)
		}
		if s.H <= 0 {
			return fmt.Errorf("species %s: h must be positive", s.Name)
		}
		if s.Erepro <= 0 || s.Erepro > 1 {
			return fmt.Errorf("species %s: erepro must be in (0,1], got %g", s.Name, s.Erepro)
		}
	}
	if p.Interaction != nil {
		ns := len(p.Species)
		if len(p.Interaction) != ns {
			return fmt.Errorf("interaction matrix has %d rows, want %d", len(p.Interaction), ns)
		}
		for i, row := range p.Interaction {
			if len(row) != ns {
				return fmt.Errorf("interaction matrix row %d has %d columns, want %d", i, len(row), ns)
			}
		}
	}
	return nil
}

// NumSpecies returns the number of species in the model.
func (p *Params) NumSpecies() int { return len(p.Species) }

// Gears returns the gear names in canonical order.
func (p *Params) Gears() []string { return p.GearNames }

func (p *Params) buildGrids() {
	nW := p.Model.NumSizeBins

	wMin := p.Species[0].WMin
	wMax := p.Species[0].WInf
	for _, s := range p.Species[1:] {
		wMin = math.Min(wMin, s.WMin)
		wMax = math.Max(wMax, s.WInf)
	}

	dx := (math.Log10(wMax) - math.Log10(wMin)) / float64(nW-1)
	p.W = make([]float64, nW)
	for j := range p.W {
		p.W[j] = wMin * math.Pow(10, float64(j)*dx)
	}
	p.DW = binWidths(p.W, dx)

	// Extend the grid downward to the resource minimum with the same
	// log spacing; the species grid is the tail of the full grid.
	nExtra := int(math.Ceil((math.Log10(wMin) - math.Log10(p.Model.MinWResource)) / dx))
	if nExtra < 0 {
		nExtra = 0
	}
	p.RefIdx = nExtra
	p.WFull = make([]float64, nExtra+nW)
	for k := range p.WFull {
		p.WFull[k] = wMin * math.Pow(10, float64(k-nExtra)*dx)
	}
	copy(p.WFull[nExtra:], p.W)
	p.DWFull = binWidths(p.WFull, dx)
}

func binWidths(w []float64, dx float64) []float64 {
	dw := make([]float64, len(w))
	for j := 0; j < len(w)-1; j++ {
		dw[j] = w[j+1] - w[j]
	}
	dw[len(w)-1] = w[len(w)-1] * (math.Pow(10, dx) - 1)
	return dw
}

func (p *Params) precompute() {
	ns := len(p.Species)
	nW := len(p.W)
	nF := len(p.WFull)
	m := p.Model

	p.WMinIdx = make([]int, ns)
	p.IntakeMax = makeMatrix(ns, nW)
	p.SearchVol = makeMatrix(ns, nW)
	p.Metab = makeMatrix(ns, nW)
	p.Psi = makeMatrix(ns, nW)
	p.PredKernel = make([][][]float64, ns)

	if p.Interaction == nil {
		p.Interaction = makeMatrix(ns, ns)
		for i := range p.Interaction {
			for j := range p.Interaction[i] {
				p.Interaction[i][j] = 1
			}
		}
	}

	for i, s := range p.Species {
		gamma := s.Gamma
		if gamma == 0 {
			// Back out the search coefficient from the expected
			// feeding level f0 against a kappa*w^-lambda spectrum.
			gamma = m.F0 * s.H * math.Pow(s.Beta, 2-m.Lambda) /
				((1 - m.F0) * math.Sqrt(2*math.Pi) * m.Kappa * s.Sigma)
			p.Species[i].Gamma = gamma
		}

		p.WMinIdx[i] = 0
		for j, w := range p.W {
			if w >= s.WMin {
				p.WMinIdx[i] = j
				break
			}
		}

		p.PredKernel[i] = makeMatrix(nW, nF)
		for j, w := range p.W {
			p.IntakeMax[i][j] = s.H * math.Pow(w, m.N)
			p.SearchVol[i][j] = gamma * math.Pow(w, m.Q)
			p.Metab[i][j] = s.Ks * math.Pow(w, m.P)
			p.Psi[i][j] = allocation(w, s.WMat, s.WInf, m.N)

			for k, wp := range p.WFull {
				if wp > w {
					break
				}
				d := math.Log(s.Beta * wp / w)
				p.PredKernel[i][j][k] = math.Exp(-d * d / (2 * s.Sigma * s.Sigma))
			}
		}
	}

	p.buildGears()

	p.CarryingCapacity = make([]float64, nF)
	p.ResourceRate = make([]float64, nF)
	for k, w := range p.WFull {
		if w <= m.WPPCutoff {
			p.CarryingCapacity[k] = m.Kappa * math.Pow(w, -m.Lambda)
		}
		p.ResourceRate[k] = m.RResource * math.Pow(w, m.N-1)
	}
}

// allocation is the fraction of assimilated energy routed to reproduction:
// a steep maturity ogive times the (w/wInf)^(1-n) investment scaling.
func allocation(w, wMat, wInf, n float64) float64 {
	if w >= wInf {
		return 1
	}
	if w < 0.1*wMat {
		return 0
	}
	ogive := 1 / (1 + math.Pow(w/wMat, -10))
	return ogive * math.Pow(w/wInf, 1-n)
}

func (p *Params) buildGears() {
	ns := len(p.Species)
	nW := len(p.W)

	p.GearNames = nil
	gearIdx := make(map[string]int)
	for _, s := range p.Species {
		if _, ok := gearIdx[s.Gear]; !ok {
			gearIdx[s.Gear] = len(p.GearNames)
			p.GearNames = append(p.GearNames, s.Gear)
		}
	}

	ng := len(p.GearNames)
	p.Catchability = makeMatrix(ng, ns)
	p.Selectivity = make([][][]float64, ng)
	for g := range p.Selectivity {
		p.Selectivity[g] = makeMatrix(ns, nW)
	}
	for i, s := range p.Species {
		g := gearIdx[s.Gear]
		p.Catchability[g][i] = s.Catchability
		for j, w := range p.W {
			if w >= s.WSel {
				p.Selectivity[g][i][j] = 1
			}
		}
	}
}

func makeMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}
