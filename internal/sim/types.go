// Package sim advances a multi-species size-spectrum model through time:
// it regularizes fishing effort onto the internal time grid, steps the
// species densities with an implicit upwind scheme, relaxes the resource
// spectrum analytically, and records snapshots at the save stride.
package sim

import (
	"github.com/juliablanchard/mizer/internal/params"
)

// Default run settings.
const (
	DefaultTMax  = 100.0
	DefaultDt    = 0.1
	DefaultTSave = 1.0
)

// ProgressFunc receives a completion fraction in [0,1], once per save
// point. It is never called concurrently.
type ProgressFunc func(fraction float64)

// Config controls one simulation run. Zero values fall back to the
// defaults above; TMax is ignored when the effort spec carries its own
// time horizon.
type Config struct {
	TMax  float64
	Dt    float64
	TSave float64

	Effort EffortSpec

	// Optional explicit initial state. When nil, InitialN (tuned by
	// InitialOpts) and the resource carrying capacity are used.
	InitialN        [][]float64
	InitialResource []float64
	InitialOpts     InitialStateOpts

	// Parallel solves species rows on separate goroutines. Rows are
	// disjoint, so the result is identical to the sequential path.
	Parallel bool

	Progress ProgressFunc
}

func (c Config) withDefaults() Config {
	if c.TMax == 0 {
		c.TMax = DefaultTMax
	}
	if c.Dt == 0 {
		c.Dt = DefaultDt
	}
	if c.TSave == 0 {
		c.TSave = DefaultTSave
	}
	return c
}

// Result is the recorded time series of a completed run: one entry per
// save point, including the initial state.
type Result struct {
	Params *params.Params

	Times []float64
	// N[s][i][j]: density of species i at size bin j at save point s.
	N [][][]float64
	// Resource[s][k]: resource spectrum at save point s.
	Resource [][]float64
	// Effort[s][g]: effort row in force at save point s.
	Effort [][]float64
}

// NumSaved returns the number of recorded snapshots.
func (r *Result) NumSaved() int { return len(r.Times) }

// FinalN returns the species density matrix at the last save point.
func (r *Result) FinalN() [][]float64 { return r.N[len(r.N)-1] }

// FinalResource returns the resource spectrum at the last save point.
func (r *Result) FinalResource() []float64 { return r.Resource[len(r.Resource)-1] }

func cloneMatrix(m [][]float64) [][]float64 {
	c := make([][]float64, len(m))
	for i := range m {
		c[i] = append([]float64(nil), m[i]...)
	}
	return c
}
