// Package optim holds the global optimizers that drive a fit: the
// differential-evolution search used for production fits and a plain
// grid scan for coarse one- or two-parameter surveys.
package optim

import "context"

// Objective is a cost function over candidate parameter vectors.
// worker identifies which scratch slot the evaluation may use, so
// implementations backed by an external engine can run concurrently.
// An infeasible candidate is reported as +Inf cost, not an error;
// errors abort the whole search.
type Objective interface {
	Evaluate(ctx context.Context, x []float64, worker int) (float64, error)
}

// ObjectiveFunc adapts a plain function to the Objective interface.
type ObjectiveFunc func(ctx context.Context, x []float64, worker int) (float64, error)

// Evaluate calls f.
func (f ObjectiveFunc) Evaluate(ctx context.Context, x []float64, worker int) (float64, error) {
	return f(ctx, x, worker)
}

// Progress is a per-generation snapshot handed to the callback.
type Progress struct {
	Generation int
	BestCost   float64
	Best       []float64
	Evals      int
}

// Callback receives progress after every generation.
type Callback func(Progress)

// Result is the outcome of a search.
type Result struct {
	Best        []float64
	Cost        float64
	Generations int
	Evals       int
	Converged   bool
	History     []Progress
}
