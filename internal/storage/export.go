package storage

import (
	"encoding/json"
	"os"
)

type ExportData struct {
	ID       string      `json:"id"`
	Scenario string      `json:"scenario"`
	Dt       float64     `json:"dt"`
	TSave    float64     `json:"t_save"`
	Species  []string    `json:"species"`
	Times    []float64   `json:"times"`
	Biomass  [][]float64 `json:"biomass"`
}

// ExportJSONStdout writes a stored run's biomass series to stdout as
// indented JSON.
func (s *Store) ExportJSONStdout(runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	times, biomass, species, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		ID:       meta.ID,
		Scenario: meta.Scenario,
		Dt:       meta.Dt,
		TSave:    meta.TSave,
		Species:  species,
		Times:    times,
		Biomass:  biomass,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
