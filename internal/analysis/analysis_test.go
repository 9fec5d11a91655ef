package analysis

import (
	"math"
	"testing"

	"github.com/lmoser/shellfit/internal/relax"
	"github.com/lmoser/shellfit/internal/storage"
	"github.com/lmoser/shellfit/internal/structure"
)

func comp(name string, fit, ref float64) relax.Comparison {
	return relax.Comparison{
		Name:   name,
		Fit:    structure.LatticeConstants{A: fit, B: fit, C: fit},
		Ref:    structure.LatticeConstants{A: ref, B: ref, C: ref},
		FitVol: fit * fit * fit,
		RefVol: ref * ref * ref,
	}
}

func TestLattice(t *testing.T) {
	comps := []relax.Comparison{
		comp("good", 4.2, 4.2),  // 0%
		comp("off", 4.41, 4.2),  // +5%
		comp("worse", 3.99, 4.2), // -5%
	}
	s := Lattice(comps)

	if s.Count != 3 {
		t.Errorf("expected count 3, got %d", s.Count)
	}
	if math.Abs(s.MeanAbsPct-10.0/3.0) > 1e-9 {
		t.Errorf("expected mean abs pct %.4f, got %.4f", 10.0/3.0, s.MeanAbsPct)
	}
	if math.Abs(s.MaxAbsPct-5.0) > 1e-9 {
		t.Errorf("expected max abs pct 5, got %f", s.MaxAbsPct)
	}
	if s.WorstName != "off" && s.WorstName != "worse" {
		t.Errorf("unexpected worst structure %s", s.WorstName)
	}
	want := math.Sqrt((0 + 25.0 + 25.0 + 0 + 25.0 + 25.0 + 0 + 25.0 + 25.0) / 9.0)
	if math.Abs(s.RMSPct-want) > 1e-9 {
		t.Errorf("expected rms pct %.4f, got %.4f", want, s.RMSPct)
	}
}

func TestLatticeEmpty(t *testing.T) {
	s := Lattice(nil)
	if s.Count != 0 || s.MeanAbsPct != 0 {
		t.Error("empty input should give zero stats")
	}
}

func TestConverge(t *testing.T) {
	hist := []storage.HistoryRecord{
		{Generation: 0, BestCost: 10.0},
		{Generation: 1, BestCost: 5.0},
		{Generation: 2, BestCost: 5.0},
		{Generation: 3, BestCost: 2.0},
		{Generation: 4, BestCost: 2.0},
		{Generation: 5, BestCost: 2.0},
	}
	c := Converge(hist)

	if c.Generations != 5 {
		t.Errorf("expected 5 generations, got %d", c.Generations)
	}
	if c.InitialCost != 10.0 || c.FinalCost != 2.0 {
		t.Errorf("unexpected costs: %f -> %f", c.InitialCost, c.FinalCost)
	}
	if math.Abs(c.Improvement-0.8) > 1e-12 {
		t.Errorf("expected improvement 0.8, got %f", c.Improvement)
	}
	if c.ImprovedGens != 2 {
		t.Errorf("expected 2 improved generations, got %d", c.ImprovedGens)
	}
	if c.Stagnation != 2 {
		t.Errorf("expected stagnation tail 2, got %d", c.Stagnation)
	}
}

func TestConvergeEmpty(t *testing.T) {
	c := Converge(nil)
	if c.Generations != 0 {
		t.Error("empty history should give zero summary")
	}
}

func TestBestCosts(t *testing.T) {
	hist := []storage.HistoryRecord{{BestCost: 3}, {BestCost: 1}}
	costs := BestCosts(hist)
	if len(costs) != 2 || costs[0] != 3 || costs[1] != 1 {
		t.Errorf("unexpected series %v", costs)
	}
}
