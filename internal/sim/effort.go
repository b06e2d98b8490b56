package sim

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// EffortSpec is a fishing-effort specification in one of three shapes:
// a single scalar, a per-gear vector, or a time-indexed schedule. It is
// resolved once by Regularize into a dense per-step table; the simulation
// loop never dispatches on the shape again.
type EffortSpec struct {
	kind effortKind

	scalar float64
	byGear map[string]float64
	vector []float64

	times []float64
	gears []string
	rows  [][]float64
}

type effortKind int

const (
	effortScalar effortKind = iota
	effortByGear
	effortVector
	effortSchedule
)

// ConstantEffort applies the same effort to every gear at every step.
// The zero EffortSpec is equivalent to ConstantEffort(0).
func ConstantEffort(v float64) EffortSpec {
	return EffortSpec{kind: effortScalar, scalar: v}
}

// GearEffort holds each named gear at a constant effort. The map keys
// must cover the model's gears; extra keys are ignored.
func GearEffort(byGear map[string]float64) EffortSpec {
	return EffortSpec{kind: effortByGear, byGear: byGear}
}

// VectorEffort holds constant per-gear effort given in the model's
// canonical gear order. Its length must equal the gear count.
func VectorEffort(v []float64) EffortSpec {
	return EffortSpec{kind: effortVector, vector: append([]float64(nil), v...)}
}

// VaryingEffort is a time-indexed schedule: rows[i] is the per-gear effort
// from times[i] until the next time point. The gear labels must cover the
// model's gears; the time axis must be non-decreasing.
func VaryingEffort(times []float64, gears []string, rows [][]float64) EffortSpec {
	return EffortSpec{kind: effortSchedule, times: times, gears: gears, rows: rows}
}

// EffortTable is the regularized effort: one row per internal time step at
// spacing dt, in canonical gear order, plus the save stride derived from
// tSave. Read-only once built.
type EffortTable struct {
	Times      []float64
	Gears      []string
	Rows       [][]float64
	SaveStride int
}

// NumSaved returns how many snapshots a run over this table records,
// including the initial one.
func (t *EffortTable) NumSaved() int {
	return (len(t.Rows)-1)/t.SaveStride + 1
}

// Regularize maps the effort onto a dense time grid of spacing dt covering
// the schedule's horizon (or tMax for constant shapes), and validates tSave
// against dt. All validation happens here, before any simulation state is
// touched.
func (s EffortSpec) Regularize(gears []string, tMax, dt, tSave float64) (*EffortTable, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %g", dt)
	}
	stride, err := saveStride(tSave, dt)
	if err != nil {
		return nil, err
	}
	if len(gears) == 0 {
		return nil, fmt.Errorf("model has no gears")
	}

	var table *EffortTable
	switch s.kind {
	case effortScalar:
		row := make([]float64, len(gears))
		for g := range row {
			row[g] = s.scalar
		}
		table, err = constantTable(gears, row, tMax, dt)
	case effortByGear:
		row := make([]float64, len(gears))
		var missing []string
		for g, name := range gears {
			v, ok := s.byGear[name]
			if !ok {
				missing = append(missing, name)
				continue
			}
			row[g] = v
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return nil, fmt.Errorf("effort does not cover model gears: missing %s", strings.Join(missing, ", "))
		}
		table, err = constantTable(gears, row, tMax, dt)
	case effortVector:
		if len(s.vector) != len(gears) {
			return nil, fmt.Errorf("effort vector has length %d but the model has %d gears and the vector has no names", len(s.vector), len(gears))
		}
		table, err = constantTable(gears, s.vector, tMax, dt)
	case effortSchedule:
		table, err = s.scheduleTable(gears, dt)
	}
	if err != nil {
		return nil, err
	}
	table.SaveStride = stride
	return table, nil
}

// saveStride checks that tSave is a positive integer multiple of dt, with
// tolerance for floating-point step accumulation, and returns the multiple.
func saveStride(tSave, dt float64) (int, error) {
	ratio := tSave / dt
	stride := math.Round(ratio)
	if stride < 1 || math.Abs(ratio-stride) > 1e-8*math.Max(1, ratio) {
		return 0, fmt.Errorf("t_save %g is not a positive integer multiple of dt %g", tSave, dt)
	}
	return int(stride), nil
}

func constantTable(gears []string, row []float64, tMax, dt float64) (*EffortTable, error) {
	if tMax <= 0 {
		return nil, fmt.Errorf("t_max must be positive, got %g", tMax)
	}
	steps := gridSteps(0, tMax, dt)
	t := &EffortTable{
		Times: make([]float64, steps),
		Gears: append([]string(nil), gears...),
		Rows:  make([][]float64, steps),
	}
	for i := 0; i < steps; i++ {
		t.Times[i] = float64(i) * dt
		t.Rows[i] = append([]float64(nil), row...)
	}
	return t, nil
}

func (s EffortSpec) scheduleTable(gears []string, dt float64) (*EffortTable, error) {
	if len(s.times) == 0 {
		return nil, fmt.Errorf("effort schedule has no time points")
	}
	if len(s.rows) != len(s.times) {
		return nil, fmt.Errorf("effort schedule has %d rows but %d time points", len(s.rows), len(s.times))
	}
	for i := 1; i < len(s.times); i++ {
		if s.times[i] < s.times[i-1] {
			return nil, fmt.Errorf("effort time axis decreases at index %d: %g after %g", i, s.times[i], s.times[i-1])
		}
	}

	// The schedule's gear labels must be a superset of the model's;
	// columns are reordered into canonical gear order.
	col := make([]int, len(gears))
	var missing []string
	for g, name := range gears {
		col[g] = -1
		for c, label := range s.gears {
			if label == name {
				col[g] = c
				break
			}
		}
		if col[g] == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("effort does not cover model gears: missing %s", strings.Join(missing, ", "))
	}
	for i, row := range s.rows {
		if len(row) != len(s.gears) {
			return nil, fmt.Errorf("effort schedule row %d has %d values but %d gear labels", i, len(row), len(s.gears))
		}
	}

	t0, tEnd := s.times[0], s.times[len(s.times)-1]
	steps := gridSteps(t0, tEnd, dt)
	t := &EffortTable{
		Times: make([]float64, steps),
		Gears: append([]string(nil), gears...),
		Rows:  make([][]float64, steps),
	}

	// Forward-fill: each specified row holds until the next time point.
	src := 0
	eps := dt * 1e-6
	for i := 0; i < steps; i++ {
		ti := t0 + float64(i)*dt
		for src+1 < len(s.times) && s.times[src+1] <= ti+eps {
			src++
		}
		row := make([]float64, len(gears))
		for g := range gears {
			row[g] = s.rows[src][col[g]]
		}
		t.Times[i] = ti
		t.Rows[i] = row
	}
	return t, nil
}

// gridSteps counts grid points from t0 to tEnd inclusive at spacing dt.
func gridSteps(t0, tEnd, dt float64) int {
	n := int(math.Floor((tEnd-t0)/dt + 1e-9))
	if n < 0 {
		n = 0
	}
	return n + 1
}
