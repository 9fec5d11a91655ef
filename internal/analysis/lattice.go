// Package analysis post-processes saved fit results: lattice-constant
// error statistics and optimizer convergence summaries.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/lmoser/shellfit/internal/relax"
)

// LatticeStats aggregates the percent errors of a comparison table.
type LatticeStats struct {
	Count      int
	MeanAbsPct float64 // over a, b, c of every structure
	RMSPct     float64
	MaxAbsPct  float64
	WorstName  string
	VolMeanPct float64 // signed mean of volume errors
}

// Lattice computes error statistics over the lattice-constant percent
// differences of comps.
func Lattice(comps []relax.Comparison) LatticeStats {
	var s LatticeStats
	s.Count = len(comps)
	if len(comps) == 0 {
		return s
	}

	var abs, sq, vols []float64
	for _, c := range comps {
		a, b, cc, vol := c.PctDiff()
		for _, p := range []float64{a, b, cc} {
			abs = append(abs, math.Abs(p))
			sq = append(sq, p*p)
			if math.Abs(p) > s.MaxAbsPct {
				s.MaxAbsPct = math.Abs(p)
				s.WorstName = c.Name
			}
		}
		vols = append(vols, vol)
	}

	s.MeanAbsPct = stat.Mean(abs, nil)
	s.RMSPct = math.Sqrt(stat.Mean(sq, nil))
	s.VolMeanPct = stat.Mean(vols, nil)
	return s
}
