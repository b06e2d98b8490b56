package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/juliablanchard/mizer/internal/params"
	"github.com/juliablanchard/mizer/internal/rates"
)

// Simulator runs the size-spectrum model forward in time. It owns no
// state between runs; each Run works on its own buffers.
type Simulator struct {
	p       *params.Params
	stepper *Stepper
}

// New returns a simulator bound to a parameter set.
func New(p *params.Params) *Simulator {
	return &Simulator{p: p, stepper: NewStepper(p)}
}

// Project is a convenience wrapper: one call from parameters to a
// completed time series.
func Project(ctx context.Context, p *params.Params, cfg Config) (*Result, error) {
	return New(p).Run(ctx, cfg)
}

// Run advances the model over the configured horizon and returns the
// recorded series. All validation happens before any stepping; a failure
// mid-run aborts and returns no partial series.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()
	p := s.p

	if err := p.Validate(); err != nil {
		return nil, err
	}
	table, err := cfg.Effort.Regularize(p.Gears(), cfg.TMax, cfg.Dt, cfg.TSave)
	if err != nil {
		return nil, err
	}

	cur, curRes, err := s.initialState(cfg)
	if err != nil {
		return nil, err
	}
	next := cloneMatrix(cur)
	nextRes := append([]float64(nil), curRes...)

	numSaved := table.NumSaved()
	result := &Result{
		Params:   p,
		Times:    make([]float64, numSaved),
		N:        make([][][]float64, numSaved),
		Resource: make([][]float64, numSaved),
		Effort:   make([][]float64, numSaved),
	}
	record := func(saveIdx, step int) {
		result.Times[saveIdx] = table.Times[step]
		result.N[saveIdx] = cloneMatrix(cur)
		result.Resource[saveIdx] = append([]float64(nil), curRes...)
		result.Effort[saveIdx] = append([]float64(nil), table.Rows[step]...)
	}
	record(0, 0)

	saved := 1
	for i := 1; i < len(table.Rows); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rt, err := rates.Compute(p, cur, curRes, table.Rows[i-1])
		if err != nil {
			return nil, fmt.Errorf("step %d (t=%g): %w", i, table.Times[i-1], err)
		}

		if cfg.Parallel {
			s.stepper.StepParallel(cur, next, rt, cfg.Dt)
		} else {
			s.stepper.Step(cur, next, rt, cfg.Dt)
		}
		s.stepper.StepResource(curRes, nextRes, rt, cfg.Dt)

		cur, next = next, cur
		curRes, nextRes = nextRes, curRes

		if err := checkFinite(p, cur, curRes); err != nil {
			return nil, fmt.Errorf("step %d (t=%g): %w", i, table.Times[i], err)
		}

		if i%table.SaveStride == 0 {
			record(saved, i)
			saved++
			if cfg.Progress != nil {
				cfg.Progress(float64(saved-1) / float64(numSaved-1))
			}
		}
	}

	return result, nil
}

func (s *Simulator) initialState(cfg Config) ([][]float64, []float64, error) {
	p := s.p
	var n [][]float64
	if cfg.InitialN != nil {
		if len(cfg.InitialN) != p.NumSpecies() {
			return nil, nil, fmt.Errorf("initial density matrix has %d rows, want %d species", len(cfg.InitialN), p.NumSpecies())
		}
		for i, row := range cfg.InitialN {
			if len(row) != len(p.W) {
				return nil, nil, fmt.Errorf("initial density row %d has %d bins, want %d", i, len(row), len(p.W))
			}
		}
		n = cloneMatrix(cfg.InitialN)
	} else {
		n = InitialN(p, cfg.InitialOpts)
	}

	var res []float64
	if cfg.InitialResource != nil {
		if len(cfg.InitialResource) != len(p.WFull) {
			return nil, nil, fmt.Errorf("initial resource vector has length %d, want %d", len(cfg.InitialResource), len(p.WFull))
		}
		res = append([]float64(nil), cfg.InitialResource...)
	} else {
		res = InitialResource(p)
	}
	return n, res, nil
}

func checkFinite(p *params.Params, n [][]float64, res []float64) error {
	for i, row := range n {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("non-finite density for species %s", p.Species[i].Name)
			}
		}
	}
	for _, v := range res {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite resource spectrum")
		}
	}
	return nil
}
