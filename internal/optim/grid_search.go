package optim

import (
	"context"
	"math"
)

// GridSearch exhaustively scans a cartesian grid of candidate values,
// one value list per dimension. Useful for coarse one- or
// two-parameter surveys before handing a box to DE.
type GridSearch struct {
	values [][]float64
}

// NewGridSearch builds a scan over the given per-dimension values.
func NewGridSearch(values [][]float64) *GridSearch {
	return &GridSearch{values: values}
}

// Search evaluates every grid point serially on worker 0 and returns
// the best vector and its cost.
func (g *GridSearch) Search(ctx context.Context, obj Objective) (*Result, error) {
	res := &Result{Cost: math.Inf(1)}
	x := make([]float64, len(g.values))
	if err := g.searchRecursive(ctx, obj, 0, x, res); err != nil {
		return nil, err
	}
	res.Converged = res.Best != nil
	return res, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, obj Objective, depth int, x []float64, res *Result) error {
	if depth == len(g.values) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		cost, err := obj.Evaluate(ctx, x, 0)
		if err != nil {
			return err
		}
		res.Evals++
		if cost < res.Cost {
			res.Cost = cost
			res.Best = clone(x)
		}
		return nil
	}

	for _, v := range g.values[depth] {
		x[depth] = v
		if err := g.searchRecursive(ctx, obj, depth+1, x, res); err != nil {
			return err
		}
	}
	return nil
}
