package fit

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/lmoser/shellfit/internal/config"
	"github.com/lmoser/shellfit/internal/dft"
	"github.com/lmoser/shellfit/internal/lammps"
	"github.com/lmoser/shellfit/internal/objective"
	"github.com/lmoser/shellfit/internal/optim"
	"github.com/lmoser/shellfit/internal/sampler"
	"github.com/lmoser/shellfit/internal/storage"
)

// Grid runs a coarse exhaustive survey over the free parameters with
// the given number of points per dimension. Useful to sanity-check a
// box before handing it to the evolutionary fit.
func Grid(ctx context.Context, cfg *config.Config, st *storage.Store, steps int) (*Summary, error) {
	if steps < 2 {
		return nil, fmt.Errorf("grid needs at least 2 steps per parameter, got %d", steps)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model, err := cfg.Model()
	if err != nil {
		return nil, err
	}
	if model.NumFree() == 0 {
		return nil, fmt.Errorf("no free parameters to survey")
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

	if err := st.Init(); err != nil {
		return nil, err
	}
	run, err := st.CreateRun(cfg.System + "_grid")
	if err != nil {
		return nil, err
	}

	// the grid scans serially, one worker is enough
	ws, err := lammps.NewWorkspace(filepath.Join(run.Dir(), "scratch"), 1)
	if err != nil {
		return nil, err
	}

	ev, err := objective.New(prepared, model, lammps.NewRunner(cfg.Engine), ws, cfg.Weights)
	if err != nil {
		return nil, err
	}

	values := make([][]float64, 0, model.NumFree())
	for _, b := range model.Bounds() {
		vs := make([]float64, steps)
		for i := range vs {
			vs[i] = b[0] + float64(i)*(b[1]-b[0])/float64(steps-1)
		}
		values = append(values, vs)
	}

	start := time.Now()
	res, err := optim.NewGridSearch(values).Search(ctx, ev)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	if res.Best == nil {
		return nil, fmt.Errorf("every grid point was infeasible")
	}

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
		Evals:       res.Evals,
		Converged:   res.Converged,
		BestCost:    res.Cost,
		Elapsed:     elapsed.Seconds(),
	}); err != nil {
		return nil, err
	}

	if err := ws.Remove(); err != nil {
		return nil, err
	}

	return &Summary{
		RunID:   run.ID,
		Model:   fitted,
		Cost:    res.Cost,
		Evals:   res.Evals,
		Conv:    res.Converged,
		Entries: names,
		Elapsed: elapsed,
	}, nil
}
