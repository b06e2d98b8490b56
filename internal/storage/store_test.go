package storage

import (
	"context"
	"testing"

	"github.com/juliablanchard/mizer/internal/params"
	"github.com/juliablanchard/mizer/internal/sim"
)

func testResult(t *testing.T) (*sim.Result, sim.Config) {
	t.Helper()
	p, err := params.New(params.DefaultModel(), []params.SpeciesParams{
		{Name: "sprat", WInf: 30, WMat: 8},
		{Name: "cod", WInf: 2000, WMat: 500, Gear: "trawl"},
	})
	if err != nil {
		t.Fatalf("building params: %v", err)
	}
	cfg := sim.Config{TMax: 4, Dt: 1, TSave: 2, Effort: sim.ConstantEffort(0)}
	result, err := sim.Project(context.Background(), p, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return result, cfg
}

func TestSaveAndList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	result, cfg := testResult(t)
	runID, err := st.Save("baseline", cfg, result)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].ID != runID || runs[0].Scenario != "baseline" {
		t.Errorf("metadata mangled: %+v", runs[0])
	}
	if runs[0].NumSaved != result.NumSaved() {
		t.Errorf("num_saved: got %d, want %d", runs[0].NumSaved, result.NumSaved())
	}
	if len(runs[0].Species) != 2 || runs[0].Species[0] != "sprat" {
		t.Errorf("species list: %v", runs[0].Species)
	}
}

func TestLoadSeriesRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	result, cfg := testResult(t)
	runID, err := st.Save("baseline", cfg, result)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	times, biomass, species, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("LoadSeries failed: %v", err)
	}
	if len(times) != result.NumSaved() {
		t.Fatalf("expected %d rows, got %d", result.NumSaved(), len(times))
	}
	if len(species) != 2 {
		t.Fatalf("expected 2 species columns, got %d", len(species))
	}
	for i := range times {
		if times[i] != result.Times[i] {
			t.Errorf("row %d: time %g, want %g", i, times[i], result.Times[i])
		}
		for s := range species {
			if biomass[i][s] < 0 {
				t.Errorf("row %d species %d: negative biomass %g", i, s, biomass[i][s])
			}
		}
	}
}

func TestListEmptyDir(t *testing.T) {
	st := New(t.TempDir() + "/missing")
	runs, err := st.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestLoadMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); err == nil {
		t.Error("expected error for missing run")
	}
}
