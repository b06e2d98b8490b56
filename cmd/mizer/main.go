package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/juliablanchard/mizer/internal/config"
	"github.com/juliablanchard/mizer/internal/params"
	"github.com/juliablanchard/mizer/internal/rates"
	"github.com/juliablanchard/mizer/internal/sim"
	"github.com/juliablanchard/mizer/internal/storage"
	"github.com/juliablanchard/mizer/internal/viz"
)

var (
	dataDir   string
	dt        float64
	tMax      float64
	tSave     float64
	effort    float64
	parallel  bool
	live      bool
	verbosity string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mizer",
		Short: "multi-species size-spectrum simulator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbosity == "debug" {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(
				tint.NewHandler(os.Stderr, &tint.Options{
					Level:      level,
					TimeFormat: time.Kitchen,
				}),
			))
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mizer", "data directory")
	rootCmd.PersistentFlags().StringVar(&verbosity, "log-level", "info", "log level (info, debug)")

	runCmd := &cobra.Command{
		Use:   "run [scenario.yaml]",
		Short: "run a scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().Float64Var(&dt, "dt", 0, "internal timestep (override)")
	runCmd.Flags().Float64Var(&tMax, "time", 0, "simulation horizon (override)")
	runCmd.Flags().Float64Var(&tSave, "t-save", 0, "save stride (override)")
	runCmd.Flags().Float64Var(&effort, "effort", -1, "constant effort for all gears (override)")
	runCmd.Flags().BoolVar(&parallel, "parallel", false, "solve species rows in parallel")
	runCmd.Flags().BoolVar(&live, "live", false, "show live progress view")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot per-species biomass of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSONStdout(args[0])
		},
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a stored run's biomass series to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportJSONCmd, exportCSVCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := config.Load(args[0])
	if err != nil {
		return err
	}

	p, err := scenario.Params()
	if err != nil {
		return fmt.Errorf("building parameters: %w", err)
	}

	cfg, err := scenario.SimConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.TMax = tMax
	}
	if cmd.Flags().Changed("t-save") {
		cfg.TSave = tSave
	}
	if cmd.Flags().Changed("effort") {
		cfg.Effort = sim.ConstantEffort(effort)
	}
	if parallel {
		cfg.Parallel = true
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	slog.Info("starting run",
		"scenario", scenario.Name,
		"species", p.NumSpecies(),
		"gears", len(p.Gears()),
		"size_bins", len(p.W))
	start := time.Now()

	var result *sim.Result
	if live {
		result, err = runLive(scenario.Name, p, cfg)
	} else {
		result, err = sim.Project(context.Background(), p, cfg)
	}
	if err != nil {
		return err
	}

	runID, err := st.Save(scenario.Name, cfg, result)
	if err != nil {
		return err
	}

	slog.Info("run complete",
		"run_id", runID,
		"saved", result.NumSaved(),
		"elapsed", time.Since(start).Round(time.Millisecond))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SPECIES\tINITIAL BIOMASS\tFINAL BIOMASS")
	first := rates.BiomassBySpecies(p, result.N[0])
	last := rates.BiomassBySpecies(p, result.FinalN())
	for i, sp := range p.Species {
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\n", sp.Name, first[i], last[i])
	}
	return w.Flush()
}

func runLive(name string, p *params.Params, cfg sim.Config) (*sim.Result, error) {
	// Sends never block so an early quit of the view cannot stall the run.
	msgs := make(chan tea.Msg, 16)
	send := func(m tea.Msg) {
		select {
		case msgs <- m:
		default:
		}
	}
	cfg.Progress = func(fraction float64) {
		send(viz.ProgressMsg{Fraction: fraction})
	}

	type runOut struct {
		result *sim.Result
		err    error
	}
	out := make(chan runOut, 1)
	go func() {
		result, err := sim.Project(context.Background(), p, cfg)
		send(viz.DoneMsg{Err: err})
		out <- runOut{result, err}
	}()

	prog := tea.NewProgram(viz.NewModel(name, p.NumSpecies(), msgs))
	if _, err := prog.Run(); err != nil {
		return nil, err
	}
	r := <-out
	return r.result, r.err
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDT\tT_SAVE\tSPECIES\tSAVED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3g\t%.3g\t%d\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Dt,
			run.TSave,
			len(run.Species),
			run.NumSaved,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	times, biomass, species, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(biomass) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\nscenario: %s\nsamples: %d\n\n", meta.ID, meta.Scenario, len(times))
	fmt.Print(viz.PlotBiomass(times, biomass, species))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	times, biomass, species, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if len(biomass) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := append([]string{"time"}, species...)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range times {
		row := []string{strconv.FormatFloat(times[i], 'f', 6, 64)}
		for _, b := range biomass[i] {
			row = append(row, strconv.FormatFloat(b, 'g', 10, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
