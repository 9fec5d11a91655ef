// Package fit wires the whole parameter fit together: load the
// reference data, sample a training subset, and drive the global
// optimizer over the engine-backed objective, persisting progress as
// it happens.
package fit

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/lmoser/shellfit/internal/config"
	"github.com/lmoser/shellfit/internal/dft"
	"github.com/lmoser/shellfit/internal/lammps"
	"github.com/lmoser/shellfit/internal/objective"
	"github.com/lmoser/shellfit/internal/optim"
	"github.com/lmoser/shellfit/internal/potential"
	"github.com/lmoser/shellfit/internal/sampler"
	"github.com/lmoser/shellfit/internal/storage"
)

// Summary is what a finished fit hands back to the CLI.
type Summary struct {
	RunID   string
	Model   *potential.Model
	Cost    float64
	Evals   int
	Gens    int
	Conv    bool
	Entries []string
	Elapsed time.Duration
}

// Run executes the fit described by cfg, storing everything under st.
// cb, when non-nil, receives per-generation progress.
func Run(ctx context.Context, cfg *config.Config, st *storage.Store, cb optim.Callback) (*Summary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model, err := cfg.Model()
	if err != nil {
		return nil, err
	}
	if model.NumFree() == 0 {
		return nil, fmt.Errorf("no free parameters to fit")
	}

	all, err := dft.LoadTrainingSet(cfg.TrainingDir)
	if err != nil {
		return nil, err
	}
	idx, err := sampler.Sample(len(all), cfg.SampleSize, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("sampling training subset: %w", err)
	}
	subset := make([]dft.Entry, len(idx))
	names := make([]string, len(idx))
	for i, j := range idx {
		subset[i] = all[j]
		names[i] = all[j].Name
	}

	prepared, err := objective.PrepareEntries(subset, model.Cutoff)
	if err != nil {
		return nil, err
	}

	workers := cfg.Optimizer.Workers
	if workers == -1 {
		workers = runtime.NumCPU()
	}
	if workers <= 0 {
		workers = 1
	}

	if err := st.Init(); err != nil {
		return nil, err
	}
	run, err := st.CreateRun(cfg.System)
	if err != nil {
		return nil, err
	}

	ws, err := lammps.NewWorkspace(filepath.Join(run.Dir(), "scratch"), workers)
	if err != nil {
		return nil, err
	}

	ev, err := objective.New(prepared, model, lammps.NewRunner(cfg.Engine), ws, cfg.Weights)
	if err != nil {
		return nil, err
	}

	de, err := optim.NewDE(model.Bounds(), optim.DEConfig{
		PopSize:     cfg.Optimizer.Population,
		F:           cfg.Optimizer.Mutation,
		CR:          cfg.Optimizer.Crossover,
		Generations: cfg.Optimizer.Generations,
		Tol:         cfg.Optimizer.Tol,
		Workers:     workers,
		Seed:        cfg.Seed,
	})
	if err != nil {
		return nil, err
	}

	paramNames := make([]string, len(model.Free))
	for i, p := range model.Free {
		paramNames[i] = p.Name
	}
	hist, err := run.History(paramNames)
	if err != nil {
		return nil, err
	}
	defer hist.Close()

	var histErr error
	de.OnProgress(func(p optim.Progress) {
		if err := hist.Append(p.Generation, p.BestCost, p.Best); err != nil && histErr == nil {
			histErr = err
		}
		if cb != nil {
			cb(p)
		}
	})

	start := time.Now()
	res, err := de.Run(ctx, ev)
	if err != nil {
		return nil, err
	}
	if histErr != nil {
		return nil, fmt.Errorf("writing history: %w", histErr)
	}
	elapsed := time.Since(start)

	fitted := model.Clone()
	if err := fitted.Apply(res.Best); err != nil {
		return nil, err
	}

	bestCfg := *cfg
	bestCfg.FromModel(fitted)
	if err := run.SaveYAML(storage.ModelFile, &bestCfg); err != nil {
		return nil, err
	}

	if err := run.SaveMetadata(storage.RunMetadata{
		System:      cfg.System,
		Timestamp:   time.Now(),
		Seed:        cfg.Seed,
		TrainingDir: cfg.TrainingDir,
		Engine:      cfg.Engine,
		SampleSize:  cfg.SampleSize,
		Entries:     names,
		Generations: res.Generations,
		Evals:       res.Evals,
		Converged:   res.Converged,
		BestCost:    res.Cost,
		Elapsed:     elapsed.Seconds(),
	}); err != nil {
		return nil, err
	}

	// training scratch is disposable once the fit is done
	if err := ws.Remove(); err != nil {
		return nil, err
	}

	return &Summary{
		RunID:   run.ID,
		Model:   fitted,
		Cost:    res.Cost,
		Evals:   res.Evals,
		Gens:    res.Generations,
		Conv:    res.Converged,
		Entries: names,
		Elapsed: elapsed,
	}, nil
}
