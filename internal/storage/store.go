// Package storage persists completed runs: metadata as JSON, the biomass
// time series as CSV, one directory per run.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/juliablanchard/mizer/internal/rates"
	"github.com/juliablanchard/mizer/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Scenario  string    `json:"scenario"`
	Timestamp time.Time `json:"timestamp"`
	Dt        float64   `json:"dt"`
	TSave     float64   `json:"t_save"`
	Species   []string  `json:"species"`
	Gears     []string  `json:"gears"`
	NumSaved  int       `json:"num_saved"`
}

// Save writes one completed run under a fresh run ID and returns the ID.
// The CSV holds per-species biomass plus total resource biomass per save
// point; effort rows are stored alongside for reproducibility.
func (s *Store) Save(scenario string, cfg sim.Config, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", scenario, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	p := result.Params
	species := make([]string, p.NumSpecies())
	for i, sp := range p.Species {
		species[i] = sp.Name
	}

	meta := RunMetadata{
		ID:        runID,
		Scenario:  scenario,
		Timestamp: time.Now(),
		Dt:        cfg.Dt,
		TSave:     cfg.TSave,
		Species:   species,
		Gears:     p.Gears(),
		NumSaved:  result.NumSaved(),
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "biomass.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := []string{"time"}
	header = append(header, species...)
	header = append(header, "resource")
	for _, g := range p.Gears() {
		header = append(header, "effort_"+g)
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for t := 0; t < result.NumSaved(); t++ {
		row := []string{formatFloat(result.Times[t])}
		for _, b := range rates.BiomassBySpecies(p, result.N[t]) {
			row = append(row, formatFloat(b))
		}
		row = append(row, formatFloat(rates.ResourceBiomass(p, result.Resource[t])))
		for _, e := range result.Effort[t] {
			row = append(row, formatFloat(e))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// List returns metadata for every stored run.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

// Load reads metadata for one run.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSeries reads the biomass CSV back: times, one column per species
// (resource and effort columns excluded), and the species names.
func (s *Store) LoadSeries(runID string) ([]float64, [][]float64, []string, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, "biomass.csv"))
	if err != nil {
		return nil, nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, [][]float64{}, meta.Species, nil
	}

	ns := len(meta.Species)
	times := make([]float64, 0, len(records)-1)
	biomass := make([][]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 1+ns {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		row := make([]float64, ns)
		ok := true
		for i := 0; i < ns; i++ {
			row[i], err = strconv.ParseFloat(record[1+i], 64)
			if err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		times = append(times, t)
		biomass = append(biomass, row)
	}
	return times, biomass, meta.Species, nil
}
