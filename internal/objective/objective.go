// Package objective turns a candidate parameter vector into a scalar
// cost by running the engine over the sampled training structures and
// comparing energies, forces and stresses against the DFT references.
package objective

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/lmoser/shellfit/internal/dft"
	"github.com/lmoser/shellfit/internal/lammps"
	"github.com/lmoser/shellfit/internal/potential"
	"github.com/lmoser/shellfit/internal/structure"
)

// stress residuals are accumulated in GPa so the default weights sit
// near unity
const barToGPa = 1e-4

// Weights scale the three residual terms of the cost.
type Weights struct {
	Energy float64 `yaml:"energy"`
	Force  float64 `yaml:"force"`
	Stress float64 `yaml:"stress"`
}

// DefaultWeights weight the terms evenly in their natural units
// (eV/atom, eV/Angstrom, GPa).
func DefaultWeights() Weights {
	return Weights{Energy: 1.0, Force: 1.0, Stress: 0.1}
}

// Entry is one prepared training structure: the supercell handed to
// the engine, the replication count that scales extensive quantities
// back to the DFT cell, and the reference data.
type Entry struct {
	Name string
	Cell *structure.Cell
	Reps int
	Ref  *dft.Reference
}

// PrepareEntries expands each training cell until the minimum image
// width exceeds twice the pair cutoff, as the engine requires.
func PrepareEntries(entries []dft.Entry, cutoff float64) ([]Entry, error) {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Cell.Volume() <= 0 {
			return nil, fmt.Errorf("entry %s: degenerate cell", e.Name)
		}
		n := e.Cell.ReplicationFor(cutoff)
		cell := e.Cell
		reps := n[0] * n[1] * n[2]
		if reps > 1 {
			var err error
			cell, err = e.Cell.Supercell(n[0], n[1], n[2])
			if err != nil {
				return nil, fmt.Errorf("entry %s: %w", e.Name, err)
			}
			cell.Name = e.Name
		}
		out = append(out, Entry{Name: e.Name, Cell: cell, Reps: reps, Ref: e.Ref})
	}
	return out, nil
}

// Evaluator runs the engine on every entry and scores the candidate.
// It implements optim.Objective; worker w evaluates in scratch slot w.
type Evaluator struct {
	entries []Entry
	proto   *potential.Model
	runner  *lammps.Runner
	ws      *lammps.Workspace
	weights Weights
	refIdx  int
}

// New builds an evaluator. entries must be non-empty; the entry with
// the lowest reference energy per atom anchors the relative-energy
// residuals.
func New(entries []Entry, proto *potential.Model, runner *lammps.Runner, ws *lammps.Workspace, w Weights) (*Evaluator, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no training entries")
	}
	refIdx := 0
	for i, e := range entries {
		ePer := e.Ref.Energy / float64(len(e.Cell.Atoms)/maxInt(e.Reps, 1))
		rPer := entries[refIdx].Ref.Energy / float64(len(entries[refIdx].Cell.Atoms)/maxInt(entries[refIdx].Reps, 1))
		if ePer < rPer {
			refIdx = i
		}
	}
	return &Evaluator{
		entries: entries,
		proto:   proto,
		runner:  runner,
		ws:      ws,
		weights: w,
		refIdx:  refIdx,
	}, nil
}

// Evaluate scores candidate x. Engine failures make the candidate
// infeasible (+Inf) instead of aborting the fit; context cancellation
// propagates as an error.
func (ev *Evaluator) Evaluate(ctx context.Context, x []float64, worker int) (float64, error) {
	model := ev.proto.Clone()
	if err := model.Apply(x); err != nil {
		return 0, err
	}

	results := make([]*lammps.Result, len(ev.entries))
	for i, e := range ev.entries {
		res, err := ev.runner.Evaluate(ctx, ev.ws.Dir(worker), e.Cell, model, false)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return 0, err
			}
			// leave no stale outputs behind for the next candidate
			if rerr := ev.ws.ResetWorker(worker); rerr != nil {
				return 0, rerr
			}
			return math.Inf(1), nil
		}
		results[i] = res
	}
	return ev.cost(results), nil
}

// cost accumulates the weighted residuals of a full training sweep.
func (ev *Evaluator) cost(results []*lammps.Result) float64 {
	var energySq, forceSq, stressSq []float64

	refE := ev.entries[ev.refIdx]
	refDFT := perAtomEnergy(refE.Ref.Energy, refE)
	refMD := perAtomEnergy(results[ev.refIdx].Energy/float64(refE.Reps), refE)

	for i, e := range ev.entries {
		res := results[i]

		if len(ev.entries) > 1 && i != ev.refIdx {
			dDFT := perAtomEnergy(e.Ref.Energy, e) - refDFT
			dMD := perAtomEnergy(res.Energy/float64(e.Reps), e) - refMD
			d := dMD - dDFT
			energySq = append(energySq, d*d)
		}

		nOrig := len(e.Cell.Atoms) / e.Reps
		for a := 0; a < nOrig && a < len(res.Forces); a++ {
			for k := 0; k < 3; k++ {
				d := res.Forces[a][k] - e.Ref.Forces[a][k]
				forceSq = append(forceSq, d*d)
			}
		}

		for k := 0; k < 6; k++ {
			d := (res.Stress[k] - e.Ref.Stress[k]) * barToGPa
			stressSq = append(stressSq, d*d)
		}
	}

	cost := 0.0
	if len(energySq) > 0 {
		cost += ev.weights.Energy * floats.Sum(energySq) / float64(len(energySq))
	}
	if len(forceSq) > 0 {
		cost += ev.weights.Force * floats.Sum(forceSq) / float64(len(forceSq))
	}
	if len(stressSq) > 0 {
		cost += ev.weights.Stress * floats.Sum(stressSq) / float64(len(stressSq))
	}
	return cost
}

// perAtomEnergy scales a DFT-cell energy to eV/atom.
func perAtomEnergy(e float64, entry Entry) float64 {
	n := len(entry.Cell.Atoms) / entry.Reps
	return e / float64(n)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
