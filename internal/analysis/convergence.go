package analysis

import (
	"github.com/lmoser/shellfit/internal/storage"
)

// Convergence summarizes a DE cost history.
type Convergence struct {
	Generations  int
	InitialCost  float64
	FinalCost    float64
	Improvement  float64 // fraction of the initial cost removed
	ImprovedGens int     // generations that lowered the best cost
	Stagnation   int     // trailing generations without improvement
}

// Converge summarizes the best-cost series of a run history.
func Converge(hist []storage.HistoryRecord) Convergence {
	var c Convergence
	if len(hist) == 0 {
		return c
	}
	c.Generations = len(hist) - 1
	c.InitialCost = hist[0].BestCost
	c.FinalCost = hist[len(hist)-1].BestCost
	if c.InitialCost != 0 {
		c.Improvement = (c.InitialCost - c.FinalCost) / c.InitialCost
	}

	lastImproved := 0
	for i := 1; i < len(hist); i++ {
		if hist[i].BestCost < hist[i-1].BestCost {
			c.ImprovedGens++
			lastImproved = i
		}
	}
	c.Stagnation = len(hist) - 1 - lastImproved
	return c
}

// BestCosts extracts the best-cost series for plotting.
func BestCosts(hist []storage.HistoryRecord) []float64 {
	out := make([]float64, len(hist))
	for i, h := range hist {
		out[i] = h.BestCost
	}
	return out
}
