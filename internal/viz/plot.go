// Package viz renders run output in the terminal: biomass plots and a
// live progress view for long runs.
package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// PlotBiomass renders one plot per species: biomass against time.
// biomass is indexed save point x species.
func PlotBiomass(times []float64, biomass [][]float64, species []string) string {
	if len(biomass) == 0 {
		return "no data to plot\n"
	}

	var b strings.Builder
	for s, name := range species {
		data := make([]float64, len(biomass))
		for t := range biomass {
			data[t] = biomass[t][s]
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s biomass, t=%g..%g", name, times[0], times[len(times)-1])),
		)
		b.WriteString(graph)
		b.WriteString("\n\n")
	}
	return b.String()
}
