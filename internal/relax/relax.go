// Package relax evaluates a fitted potential the way the reference
// data was produced: relax the cell under zero stress and compare the
// resulting lattice constants against the DFT reference.
package relax

import (
	"context"
	"fmt"

	"github.com/lmoser/shellfit/internal/dft"
	"github.com/lmoser/shellfit/internal/lammps"
	"github.com/lmoser/shellfit/internal/potential"
	"github.com/lmoser/shellfit/internal/structure"
)

// Comparison is the relaxed-versus-reference record for one structure.
type Comparison struct {
	Name   string
	Fit    structure.LatticeConstants
	Ref    structure.LatticeConstants
	FitVol float64 // per DFT cell, Angstrom^3
	RefVol float64
}

// PctDiff returns the percent differences (fit - ref) / ref * 100 for
// a, b, c and the volume.
func (c Comparison) PctDiff() (a, b, cc, vol float64) {
	pct := func(fit, ref float64) float64 { return (fit - ref) / ref * 100 }
	return pct(c.Fit.A, c.Ref.A), pct(c.Fit.B, c.Ref.B), pct(c.Fit.C, c.Ref.C), pct(c.FitVol, c.RefVol)
}

// Evaluate relaxes every entry with the fitted model in dir and
// compares the relaxed cell to the reference. Entries run serially;
// a relaxation failure aborts with an error naming the structure.
func Evaluate(ctx context.Context, entries []dft.Entry, model *potential.Model, runner *lammps.Runner, dir string) ([]Comparison, error) {
	out := make([]Comparison, 0, len(entries))
	for _, e := range entries {
		n := e.Cell.ReplicationFor(model.Cutoff)
		cell := e.Cell
		if n[0]*n[1]*n[2] > 1 {
			var err error
			cell, err = e.Cell.Supercell(n[0], n[1], n[2])
			if err != nil {
				return nil, fmt.Errorf("relaxing %s: %w", e.Name, err)
			}
			cell.Name = e.Name
		}

		res, err := runner.Evaluate(ctx, dir, cell, model, true)
		if err != nil {
			return nil, fmt.Errorf("relaxing %s: %w", e.Name, err)
		}

		// scale the relaxed supercell back to the DFT cell
		relaxed := &structure.Cell{Name: e.Name, Lattice: res.Box.Lattice()}
		for i := 0; i < 3; i++ {
			for k := 0; k < 3; k++ {
				relaxed.Lattice[i][k] /= float64(n[i])
			}
		}

		out = append(out, Comparison{
			Name:   e.Name,
			Fit:    relaxed.Constants(),
			Ref:    e.Cell.Constants(),
			FitVol: relaxed.Volume(),
			RefVol: e.Cell.Volume(),
		})
	}
	return out, nil
}
