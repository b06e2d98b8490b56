package sim

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/juliablanchard/mizer/internal/params"
)

func testParams(t *testing.T) *params.Params {
	t.Helper()
	p, err := params.New(params.DefaultModel(), []params.SpeciesParams{
		{Name: "sprat", WInf: 30, WMat: 8, Gear: "pelagic"},
		{Name: "haddock", WInf: 800, WMat: 150, Gear: "demersal"},
	})
	if err != nil {
		t.Fatalf("building params: %v", err)
	}
	return p
}

func TestRunSaveStrideContract(t *testing.T) {
	p := testParams(t)
	result, err := Project(context.Background(), p, Config{
		TMax: 10, Dt: 1, TSave: 2,
		Effort: ConstantEffort(0),
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.NumSaved() != 6 {
		t.Fatalf("expected 6 snapshots, got %d", result.NumSaved())
	}
	want := []float64{0, 2, 4, 6, 8, 10}
	for s, tm := range result.Times {
		if tm != want[s] {
			t.Errorf("snapshot %d at t=%g, want %g", s, tm, want[s])
		}
	}
}

func TestRunInvalidSaveStrideFailsBeforeStepping(t *testing.T) {
	p := testParams(t)
	_, err := Project(context.Background(), p, Config{
		TMax: 10, Dt: 0.1, TSave: 0.25,
		Effort: ConstantEffort(0),
	})
	if err == nil {
		t.Fatal("expected configuration error, got nil")
	}
	if !strings.Contains(err.Error(), "multiple") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunGearMismatchFailsBeforeStepping(t *testing.T) {
	p := testParams(t)
	_, err := Project(context.Background(), p, Config{
		TMax: 10, Dt: 1, TSave: 1,
		Effort: VectorEffort([]float64{1, 2, 3}),
	})
	if err == nil {
		t.Fatal("expected gear mismatch error, got nil")
	}
}

func TestRunDeterminism(t *testing.T) {
	p := testParams(t)
	cfg := Config{
		TMax: 5, Dt: 0.1, TSave: 1,
		Effort: GearEffort(map[string]float64{"pelagic": 0.5, "demersal": 1.0}),
	}

	a, err := Project(context.Background(), p, cfg)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	b, err := Project(context.Background(), p, cfg)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if !reflect.DeepEqual(a.Times, b.Times) ||
		!reflect.DeepEqual(a.N, b.N) ||
		!reflect.DeepEqual(a.Resource, b.Resource) ||
		!reflect.DeepEqual(a.Effort, b.Effort) {
		t.Error("identical inputs produced different series")
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	p := testParams(t)
	base := Config{
		TMax: 3, Dt: 0.1, TSave: 1,
		Effort: ConstantEffort(0.8),
	}
	seq, err := Project(context.Background(), p, base)
	if err != nil {
		t.Fatalf("sequential run failed: %v", err)
	}

	par := base
	par.Parallel = true
	got, err := Project(context.Background(), p, par)
	if err != nil {
		t.Fatalf("parallel run failed: %v", err)
	}

	if !reflect.DeepEqual(seq.N, got.N) || !reflect.DeepEqual(seq.Resource, got.Resource) {
		t.Error("parallel run diverged from sequential run")
	}
}

func TestRunRecordsInitialState(t *testing.T) {
	p := testParams(t)
	n0 := InitialN(p, InitialStateOpts{Scale: p.Model.Kappa / 500})
	r0 := InitialResource(p)

	result, err := Project(context.Background(), p, Config{
		TMax: 2, Dt: 1, TSave: 1,
		Effort:          ConstantEffort(0),
		InitialN:        n0,
		InitialResource: r0,
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !reflect.DeepEqual(result.N[0], n0) {
		t.Error("first snapshot does not equal the supplied initial densities")
	}
	if !reflect.DeepEqual(result.Resource[0], r0) {
		t.Error("first snapshot does not equal the supplied initial resource")
	}
	// The run must own its buffers, not the caller's slices.
	n0[0][p.WMinIdx[0]] = -1
	if result.N[0][0][p.WMinIdx[0]] == -1 {
		t.Error("result aliases the caller's initial state")
	}
}

func TestRunRejectsMisshapenInitialState(t *testing.T) {
	p := testParams(t)
	_, err := Project(context.Background(), p, Config{
		TMax: 2, Dt: 1, TSave: 1,
		Effort:   ConstantEffort(0),
		InitialN: [][]float64{{1, 2, 3}},
	})
	if err == nil {
		t.Fatal("expected shape error, got nil")
	}
}

func TestRunProgressPerSavePoint(t *testing.T) {
	p := testParams(t)
	var fractions []float64
	_, err := Project(context.Background(), p, Config{
		TMax: 10, Dt: 0.5, TSave: 2,
		Effort:   ConstantEffort(0),
		Progress: func(f float64) { fractions = append(fractions, f) },
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// 6 snapshots total; the callback fires for the 5 recorded during
	// stepping, not for the initial one.
	if len(fractions) != 5 {
		t.Fatalf("expected 5 progress calls, got %d", len(fractions))
	}
	prev := 0.0
	for i, f := range fractions {
		if f <= prev || f > 1 {
			t.Errorf("call %d: fraction %g not monotonically increasing in (0,1]", i, f)
		}
		prev = f
	}
	if fractions[len(fractions)-1] != 1 {
		t.Errorf("final fraction %g, want 1", fractions[len(fractions)-1])
	}
}

func TestRunContextCancellation(t *testing.T) {
	p := testParams(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Project(ctx, p, Config{
		TMax: 10, Dt: 0.1, TSave: 1,
		Effort: ConstantEffort(0),
	})
	if err == nil {
		t.Fatal("expected context error, got nil")
	}
	if result != nil {
		t.Error("cancelled run returned a partial series")
	}
}

func TestRunDefaults(t *testing.T) {
	p := testParams(t)
	result, err := Project(context.Background(), p, Config{TMax: 2})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	// dt defaults to 0.1 and tSave to 1: snapshots at 0, 1, 2.
	if result.NumSaved() != 3 {
		t.Errorf("expected 3 snapshots, got %d", result.NumSaved())
	}
}
