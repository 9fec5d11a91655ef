package optim

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
)

// sphere has its minimum at the center of the box.
func sphere(center []float64) ObjectiveFunc {
	return func(ctx context.Context, x []float64, worker int) (float64, error) {
		sum := 0.0
		for i := range x {
			d := x[i] - center[i]
			sum += d * d
		}
		return sum, nil
	}
}

func TestDEFindsMinimum(t *testing.T) {
	bounds := [][2]float64{{-5, 5}, {-5, 5}, {-5, 5}}
	de, err := NewDE(bounds, DEConfig{Generations: 200, Seed: 1, Tol: 1e-10})
	if err != nil {
		t.Fatal(err)
	}

	res, err := de.Run(context.Background(), sphere([]float64{1.5, -2.0, 0.5}))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := []float64{1.5, -2.0, 0.5}
	for i, w := range want {
		if math.Abs(res.Best[i]-w) > 1e-3 {
			t.Errorf("component %d: expected %.4f, got %.4f", i, w, res.Best[i])
		}
	}
	if res.Cost > 1e-5 {
		t.Errorf("expected near-zero cost, got %g", res.Cost)
	}
}

func TestDEDeterministicForSeed(t *testing.T) {
	bounds := [][2]float64{{-1, 1}, {-1, 1}}
	obj := sphere([]float64{0.3, -0.3})

	run := func(workers int) *Result {
		de, err := NewDE(bounds, DEConfig{Generations: 20, Seed: 99, Workers: workers})
		if err != nil {
			t.Fatal(err)
		}
		res, err := de.Run(context.Background(), obj)
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	a, b := run(1), run(4)
	if a.Cost != b.Cost {
		t.Errorf("worker count changed the search: %g vs %g", a.Cost, b.Cost)
	}
	for i := range a.Best {
		if a.Best[i] != b.Best[i] {
			t.Errorf("worker count changed the best vector")
		}
	}
}

func TestDEBestCostMonotone(t *testing.T) {
	bounds := [][2]float64{{-2, 2}, {-2, 2}}
	de, err := NewDE(bounds, DEConfig{Generations: 30, Seed: 5})
	if err != nil {
		t.Fatal(err)
	}

	var history []float64
	de.OnProgress(func(p Progress) {
		history = append(history, p.BestCost)
	})
	if _, err := de.Run(context.Background(), sphere([]float64{1, 1})); err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(history); i++ {
		if history[i] > history[i-1] {
			t.Fatalf("best cost increased at generation %d: %g -> %g", i, history[i-1], history[i])
		}
	}
}

func TestDECandidatesInsideBounds(t *testing.T) {
	bounds := [][2]float64{{0, 1}, {2, 3}}
	var mu sync.Mutex
	violations := 0

	obj := ObjectiveFunc(func(ctx context.Context, x []float64, worker int) (float64, error) {
		mu.Lock()
		defer mu.Unlock()
		for i, b := range bounds {
			if x[i] < b[0] || x[i] > b[1] {
				violations++
			}
		}
		return x[0] + x[1], nil
	})

	de, err := NewDE(bounds, DEConfig{Generations: 15, Seed: 2, Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := de.Run(context.Background(), obj); err != nil {
		t.Fatal(err)
	}
	if violations != 0 {
		t.Errorf("%d candidates escaped the bounds", violations)
	}
}

func TestDEInfeasibleCandidates(t *testing.T) {
	// half the box is infeasible; DE should still find the feasible minimum
	obj := ObjectiveFunc(func(ctx context.Context, x []float64, worker int) (float64, error) {
		if x[0] < 0 {
			return math.Inf(1), nil
		}
		return (x[0] - 0.5) * (x[0] - 0.5), nil
	})

	de, err := NewDE([][2]float64{{-1, 1}}, DEConfig{PopSize: 20, Generations: 100, Seed: 3})
	if err != nil {
		t.Fatal(err)
	}
	res, err := de.Run(context.Background(), obj)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Best[0]-0.5) > 1e-3 {
		t.Errorf("expected 0.5, got %f", res.Best[0])
	}
}

func TestDEObjectiveError(t *testing.T) {
	boom := errors.New("engine exploded")
	obj := ObjectiveFunc(func(ctx context.Context, x []float64, worker int) (float64, error) {
		return 0, boom
	})

	de, err := NewDE([][2]float64{{0, 1}}, DEConfig{Generations: 5, Seed: 1, Workers: 3})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := de.Run(context.Background(), obj); !errors.Is(err, boom) {
		t.Errorf("expected objective error, got %v", err)
	}
}

func TestDEContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	obj := ObjectiveFunc(func(ctx context.Context, x []float64, worker int) (float64, error) {
		calls++
		if calls > 10 {
			cancel()
		}
		return x[0], nil
	})

	de, err := NewDE([][2]float64{{0, 1}}, DEConfig{PopSize: 8, Generations: 1000, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := de.Run(ctx, obj); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDEConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		bounds [][2]float64
		cfg    DEConfig
	}{
		{"empty bounds", nil, DEConfig{}},
		{"inverted bounds", [][2]float64{{1, 0}}, DEConfig{}},
		{"tiny population", [][2]float64{{0, 1}}, DEConfig{PopSize: 3}},
		{"bad F", [][2]float64{{0, 1}}, DEConfig{F: 3}},
		{"bad CR", [][2]float64{{0, 1}}, DEConfig{CR: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDE(tt.bounds, tt.cfg); err == nil {
				t.Error("expected config error")
			}
		})
	}
}

func TestGridSearch(t *testing.T) {
	grid := NewGridSearch([][]float64{
		{0, 0.5, 1.0, 1.5},
		{-1, 0, 1},
	})
	res, err := grid.Search(context.Background(), sphere([]float64{1.0, 0.0}))
	if err != nil {
		t.Fatal(err)
	}
	if res.Evals != 12 {
		t.Errorf("expected 12 evaluations, got %d", res.Evals)
	}
	if res.Best[0] != 1.0 || res.Best[1] != 0.0 {
		t.Errorf("expected grid minimum at (1, 0), got %v", res.Best)
	}
}

func TestGridSearchContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	grid := NewGridSearch([][]float64{{0, 1}})
	if _, err := grid.Search(ctx, sphere([]float64{0})); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
