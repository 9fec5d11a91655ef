package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lmoser/shellfit/internal/analysis"
	"github.com/lmoser/shellfit/internal/config"
	"github.com/lmoser/shellfit/internal/dft"
	"github.com/lmoser/shellfit/internal/export"
	"github.com/lmoser/shellfit/internal/fit"
	"github.com/lmoser/shellfit/internal/lammps"
	"github.com/lmoser/shellfit/internal/optim"
	"github.com/lmoser/shellfit/internal/relax"
	"github.com/lmoser/shellfit/internal/sampler"
	"github.com/lmoser/shellfit/internal/storage"
	"github.com/lmoser/shellfit/internal/viz"
)

var (
	dataDir     string
	configFile  string
	preset      string
	engine      string
	trainingDir string
	sampleSize  int
	seed        int64
	workers     int
	generations int
	population  int
	gridSteps   int
	live        bool
	outPath     string
	paramName   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shellfit",
		Short: "fit core-shell interatomic potentials against DFT training data",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".shellfit", "data directory")

	fitCmd := &cobra.Command{
		Use:   "fit",
		Short: "fit the free potential parameters",
		RunE:  runFit,
	}
	fitCmd.Flags().StringVar(&configFile, "config", "", "job file (yaml)")
	fitCmd.Flags().StringVar(&preset, "preset", "", "use a built-in job preset")
	fitCmd.Flags().StringVar(&engine, "engine", "lmp", "LAMMPS executable")
	fitCmd.Flags().StringVar(&trainingDir, "training", "", "training set directory")
	fitCmd.Flags().IntVar(&sampleSize, "sample", config.DefaultSampleSize, "training structures per fit")
	fitCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	fitCmd.Flags().IntVar(&workers, "workers", -1, "parallel engine evaluations, -1 for all CPUs")
	fitCmd.Flags().IntVar(&generations, "generations", config.DefaultGenerations, "generation cap")
	fitCmd.Flags().IntVar(&population, "population", 0, "population size, 0 for 10x parameters")
	fitCmd.Flags().BoolVar(&live, "live", false, "show a live fit monitor")

	sampleCmd := &cobra.Command{
		Use:   "sample [training_dir]",
		Short: "show which structures a seed selects",
		Args:  cobra.ExactArgs(1),
		RunE:  runSample,
	}
	sampleCmd.Flags().IntVar(&sampleSize, "n", config.DefaultSampleSize, "subset size")
	sampleCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	relaxCmd := &cobra.Command{
		Use:   "relax [run_id]",
		Short: "relax every training structure with a fitted model",
		Args:  cobra.ExactArgs(1),
		RunE:  runRelax,
	}
	relaxCmd.Flags().StringVar(&engine, "engine", "", "LAMMPS executable (default: the one used by the fit)")
	relaxCmd.Flags().StringVar(&trainingDir, "training", "", "structure directory (default: the fit's training set)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot fit convergence",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&paramName, "param", "", "also plot one parameter trace")

	compareCmd := &cobra.Command{
		Use:   "compare [run_id]",
		Short: "show relaxed vs reference lattice constants",
		Args:  cobra.ExactArgs(1),
		RunE:  compareRun,
	}

	gridCmd := &cobra.Command{
		Use:   "grid",
		Short: "coarse grid survey over the free parameters",
		RunE:  runGrid,
	}
	gridCmd.Flags().StringVar(&configFile, "config", "", "job file (yaml)")
	gridCmd.Flags().StringVar(&preset, "preset", "", "use a built-in job preset")
	gridCmd.Flags().StringVar(&engine, "engine", "lmp", "LAMMPS executable")
	gridCmd.Flags().StringVar(&trainingDir, "training", "", "training set directory")
	gridCmd.Flags().IntVar(&sampleSize, "sample", config.DefaultSampleSize, "training structures per survey")
	gridCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	gridCmd.Flags().IntVar(&gridSteps, "steps", 8, "grid points per parameter")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list built-in job presets or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, p := range config.ListPresets() {
					fmt.Println(p)
				}
				return nil
			}
			cfg := config.GetPreset(args[0])
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export fit history to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&outPath, "out", "", "output file (default: <run_id>.csv)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export the full run record to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&outPath, "out", "", "output file (default: stdout)")

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "render convergence and lattice plots to PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().StringVar(&outPath, "out", "", "output prefix (default: <run_id>)")

	rootCmd.AddCommand(fitCmd, sampleCmd, relaxCmd, listCmd, plotCmd, compareCmd, gridCmd, presetsCmd, exportCSVCmd, exportJSONCmd, exportPNGCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadJobConfig resolves the job from --config or --preset and applies
// the flag overrides.
func loadJobConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	default:
		return nil, fmt.Errorf("either --config or --preset is required")
	}

	if cmd.Flags().Changed("engine") {
		cfg.Engine = engine
	}
	if cmd.Flags().Changed("training") {
		cfg.TrainingDir = trainingDir
	}
	if cmd.Flags().Changed("sample") {
		cfg.SampleSize = sampleSize
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("workers") {
		cfg.Optimizer.Workers = workers
	}
	if cmd.Flags().Changed("generations") {
		cfg.Optimizer.Generations = generations
	}
	if cmd.Flags().Changed("population") {
		cfg.Optimizer.Population = population
	}
	return cfg, nil
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := loadJobConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st := storage.New(dataDir)
	if live {
		return runFitLive(ctx, cfg, st)
	}

	fmt.Printf("fitting %s against %s...\n", cfg.System, cfg.TrainingDir)
	sum, err := fit.Run(ctx, cfg, st, func(p optim.Progress) {
		fmt.Printf("gen %4d  cost %.6g\n", p.Generation, p.BestCost)
	})
	if err != nil {
		return err
	}
	fmt.Println()
	printSummary(sum)
	return nil
}

func runFitLive(ctx context.Context, cfg *config.Config, st *storage.Store) error {
	model, err := cfg.Model()
	if err != nil {
		return err
	}
	names := make([]string, len(model.Free))
	for i, p := range model.Free {
		names[i] = p.Name
	}

	prog := tea.NewProgram(viz.NewMonitor(cfg.System, names))

	var sum *fit.Summary
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		sum, runErr = fit.Run(ctx, cfg, st, func(p optim.Progress) {
			prog.Send(viz.ProgressMsg(p))
		})
		prog.Send(viz.DoneMsg{Err: runErr})
	}()

	if _, err := prog.Run(); err != nil {
		return err
	}
	select {
	case <-done:
	default:
		fmt.Println("monitor closed, waiting for the fit to finish...")
	}
	<-done
	if runErr != nil {
		return runErr
	}
	printSummary(sum)
	return nil
}

func printSummary(sum *fit.Summary) {
	fmt.Printf("run id: %s\n", sum.RunID)
	fmt.Printf("best cost: %.6g\n", sum.Cost)
	fmt.Printf("evaluations: %d", sum.Evals)
	if sum.Gens > 0 {
		fmt.Printf(" over %d generations", sum.Gens)
	}
	fmt.Println()
	fmt.Printf("converged: %v\n", sum.Conv)
	fmt.Printf("elapsed: %v\n", sum.Elapsed.Round(time.Millisecond))
	v, err := sum.Model.Vector()
	if err != nil {
		return
	}
	fmt.Println("\nfitted parameters:")
	for i, p := range sum.Model.Free {
		fmt.Printf("  %s: %.6g\n", p.Name, v[i])
	}
}

func runSample(cmd *cobra.Command, args []string) error {
	entries, err := dft.LoadTrainingSet(args[0])
	if err != nil {
		return err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	picked, err := sampler.Pick(names, sampleSize, seed)
	if err != nil {
		return err
	}

	fmt.Printf("%d of %d structures (seed %d):\n", len(picked), len(names), seed)
	for _, n := range picked {
		fmt.Printf("  %s\n", n)
	}
	return nil
}

func runRelax(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	cfg, err := config.Load(filepath.Join(st.RunDir(runID), storage.ModelFile))
	if err != nil {
		return fmt.Errorf("loading fitted model for %s: %w", runID, err)
	}
	if cmd.Flags().Changed("engine") {
		cfg.Engine = engine
	}
	if cmd.Flags().Changed("training") {
		cfg.TrainingDir = trainingDir
	}

	model, err := cfg.Model()
	if err != nil {
		return err
	}
	entries, err := dft.LoadTrainingSet(cfg.TrainingDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	scratch := filepath.Join(st.RunDir(runID), "relax")
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	fmt.Printf("relaxing %d structures...\n\n", len(entries))
	comps, err := relax.Evaluate(ctx, entries, model, lammps.NewRunner(cfg.Engine), scratch)
	if err != nil {
		return err
	}

	if err := relax.WriteCSV(filepath.Join(st.RunDir(runID), storage.LatticeFile), comps); err != nil {
		return err
	}
	fmt.Print(viz.LatticeTable(comps))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYSTEM\tTIME\tCOST\tEVALS\tCONV")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.6g\t%d\t%v\n",
			run.ID,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.BestCost,
			run.Evals,
			run.Converged,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	names, hist, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}

	fmt.Println(viz.Convergence(hist))

	c := analysis.Converge(hist)
	fmt.Printf("\ncost %.6g -> %.6g (%.1f%% improvement) over %d generations, %d stagnant\n",
		c.InitialCost, c.FinalCost, c.Improvement*100, c.Generations, c.Stagnation)

	if paramName == "" {
		return nil
	}

	for i, n := range names {
		if n == paramName {
			fmt.Println()
			fmt.Println(viz.ParamTrace(n, i, hist))
			return nil
		}
	}
	return fmt.Errorf("unknown parameter %q (have %v)", paramName, names)
}

func compareRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	comps, err := relax.ReadCSV(filepath.Join(st.RunDir(runID), storage.LatticeFile))
	if err != nil {
		return fmt.Errorf("no lattice comparison for %s, run relax first: %w", runID, err)
	}

	fmt.Print(viz.LatticeTable(comps))
	fmt.Println()
	fmt.Print(viz.LatticeBars(comps))

	s := analysis.Lattice(comps)
	fmt.Printf("\n%d structures: mean |da| %.2f%%, rms %.2f%%, worst %s (%.2f%%), mean dV %+.2f%%\n",
		s.Count, s.MeanAbsPct, s.RMSPct, s.WorstName, s.MaxAbsPct, s.VolMeanPct)
	return nil
}

func runGrid(cmd *cobra.Command, args []string) error {
	cfg, err := loadJobConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("surveying %s with %d points per parameter...\n", cfg.System, gridSteps)
	sum, err := fit.Grid(ctx, cfg, storage.New(dataDir), gridSteps)
	if err != nil {
		return err
	}
	fmt.Println()
	printSummary(sum)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	names, hist, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}

	out := outPath
	if out == "" {
		out = runID + ".csv"
	}
	if err := export.CSV(out, names, hist); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	names, hist, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}
	// lattice data is optional, the run may not have been relaxed
	comps, _ := relax.ReadCSV(filepath.Join(st.RunDir(runID), storage.LatticeFile))

	if outPath == "" {
		return export.JSONStdout(meta, names, hist, comps)
	}
	if err := export.JSON(outPath, meta, names, hist, comps); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func exportPNG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	_, hist, err := st.LoadHistory(runID)
	if err != nil {
		return err
	}

	prefix := outPath
	if prefix == "" {
		prefix = runID
	}

	conv := prefix + "_convergence.png"
	if err := export.ConvergencePNG(conv, meta.System+" fit convergence", hist); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", conv)

	comps, err := relax.ReadCSV(filepath.Join(st.RunDir(runID), storage.LatticeFile))
	if err != nil {
		// no relax results yet, the convergence plot is all there is
		return nil
	}
	lat := prefix + "_lattice.png"
	if err := export.LatticePNG(lat, meta.System+" lattice constants", comps); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", lat)
	return nil
}
