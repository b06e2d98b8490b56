// Package config loads scenario files: run settings, the species table
// (inline or referenced), and the effort specification, all in YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/juliablanchard/mizer/internal/params"
	"github.com/juliablanchard/mizer/internal/sim"
)

// Scenario is one runnable setup. Species come either from an inline
// table or from a separate species file; run settings left zero fall back
// to the sim defaults.
type Scenario struct {
	Name     string  `yaml:"name"`
	Dt       float64 `yaml:"dt"`
	TMax     float64 `yaml:"t_max"`
	TSave    float64 `yaml:"t_save"`
	Parallel bool    `yaml:"parallel"`

	SpeciesFile string                 `yaml:"species_file"`
	Model       *params.ModelParams    `yaml:"model"`
	Species     []params.SpeciesParams `yaml:"species"`

	Effort       EffortConfig       `yaml:"effort"`
	InitialState InitialStateConfig `yaml:"initial_state"`

	dir string
}

// EffortConfig selects one of the three effort shapes. At most one of
// Gears and Schedule may be set; with neither, Constant applies (0 means
// an unfished run).
type EffortConfig struct {
	Constant float64            `yaml:"constant"`
	Gears    map[string]float64 `yaml:"gears"`
	Schedule *EffortSchedule    `yaml:"schedule"`
}

type EffortSchedule struct {
	Times []float64   `yaml:"times"`
	Gears []string    `yaml:"gears"`
	Rows  [][]float64 `yaml:"rows"`
}

type InitialStateConfig struct {
	A     float64 `yaml:"a"`
	Scale float64 `yaml:"scale"`
}

// Load reads a scenario file. Relative species_file paths resolve against
// the scenario file's directory.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = trimExt(filepath.Base(path))
	}
	s.dir = filepath.Dir(path)
	return &s, nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

// Params builds the model parameters named by the scenario.
func (s *Scenario) Params() (*params.Params, error) {
	if s.SpeciesFile != "" {
		if len(s.Species) > 0 {
			return nil, fmt.Errorf("scenario %s sets both species_file and an inline species table", s.Name)
		}
		path := s.SpeciesFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.dir, path)
		}
		return params.LoadFile(path)
	}
	if len(s.Species) == 0 {
		return nil, fmt.Errorf("scenario %s has no species table", s.Name)
	}
	model := params.DefaultModel()
	if s.Model != nil {
		model = *s.Model
	}
	return params.New(model, s.Species)
}

// SimConfig translates the scenario's run settings into a sim.Config.
func (s *Scenario) SimConfig() (sim.Config, error) {
	effort, err := s.Effort.Spec()
	if err != nil {
		return sim.Config{}, err
	}
	return sim.Config{
		TMax:     s.TMax,
		Dt:       s.Dt,
		TSave:    s.TSave,
		Effort:   effort,
		Parallel: s.Parallel,
		InitialOpts: sim.InitialStateOpts{
			A:     s.InitialState.A,
			Scale: s.InitialState.Scale,
		},
	}, nil
}

// Spec resolves the YAML effort shape into an EffortSpec.
func (e EffortConfig) Spec() (sim.EffortSpec, error) {
	if e.Gears != nil && e.Schedule != nil {
		return sim.EffortSpec{}, fmt.Errorf("effort sets both gears and schedule")
	}
	if e.Schedule != nil {
		return sim.VaryingEffort(e.Schedule.Times, e.Schedule.Gears, e.Schedule.Rows), nil
	}
	if e.Gears != nil {
		return sim.GearEffort(e.Gears), nil
	}
	return sim.ConstantEffort(e.Constant), nil
}
