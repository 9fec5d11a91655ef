package optim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// DEConfig configures a differential-evolution (DE/rand/1/bin) search.
type DEConfig struct {
	PopSize     int     // 0 means 10x the problem dimension
	F           float64 // mutation factor, 0 means 0.8
	CR          float64 // crossover probability, 0 means 0.9
	Generations int     // hard cap on generations
	Tol         float64 // relative spread of population costs at convergence
	Workers     int     // parallel evaluations; -1 means all CPUs
	Seed        int64
}

// DE is a bounded differential-evolution optimizer. Trial vectors are
// generated serially from one seeded source, so a fixed seed replays
// the same search regardless of worker count.
type DE struct {
	bounds [][2]float64
	cfg    DEConfig
	cb     Callback
}

// NewDE builds an optimizer over the given box.
func NewDE(bounds [][2]float64, cfg DEConfig) (*DE, error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("empty search space")
	}
	for i, b := range bounds {
		if b[0] > b[1] {
			return nil, fmt.Errorf("dimension %d: lower bound %f above upper %f", i, b[0], b[1])
		}
	}
	if cfg.PopSize == 0 {
		cfg.PopSize = 10 * len(bounds)
	}
	if cfg.PopSize < 4 {
		return nil, fmt.Errorf("population of %d is too small for DE/rand/1", cfg.PopSize)
	}
	if cfg.F == 0 {
		cfg.F = 0.8
	}
	if cfg.CR == 0 {
		cfg.CR = 0.9
	}
	if cfg.F < 0 || cfg.F > 2 {
		return nil, fmt.Errorf("mutation factor %f outside [0, 2]", cfg.F)
	}
	if cfg.CR < 0 || cfg.CR > 1 {
		return nil, fmt.Errorf("crossover probability %f outside [0, 1]", cfg.CR)
	}
	if cfg.Generations <= 0 {
		cfg.Generations = 100
	}
	if cfg.Workers == -1 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &DE{bounds: bounds, cfg: cfg}, nil
}

// OnProgress registers the per-generation callback.
func (d *DE) OnProgress(cb Callback) { d.cb = cb }

// Run searches for the minimum of obj.
func (d *DE) Run(ctx context.Context, obj Objective) (*Result, error) {
	dim := len(d.bounds)
	np := d.cfg.PopSize
	rng := rand.New(rand.NewSource(d.cfg.Seed))

	pop := make([][]float64, np)
	for i := range pop {
		pop[i] = make([]float64, dim)
		for k, b := range d.bounds {
			pop[i][k] = b[0] + rng.Float64()*(b[1]-b[0])
		}
	}

	res := &Result{}
	costs, err := d.evalAll(ctx, obj, pop)
	if err != nil {
		return nil, err
	}
	res.Evals += np

	bestIdx := argmin(costs)
	res.Best = clone(pop[bestIdx])
	res.Cost = costs[bestIdx]
	d.report(res, 0)

	for gen := 1; gen <= d.cfg.Generations; gen++ {
		trials := make([][]float64, np)
		for i := range trials {
			trials[i] = d.mutate(rng, pop, i)
		}

		trialCosts, err := d.evalAll(ctx, obj, trials)
		if err != nil {
			return nil, err
		}
		res.Evals += np

		for i := range pop {
			if trialCosts[i] <= costs[i] {
				pop[i] = trials[i]
				costs[i] = trialCosts[i]
			}
		}

		bestIdx = argmin(costs)
		if costs[bestIdx] < res.Cost {
			res.Cost = costs[bestIdx]
			res.Best = clone(pop[bestIdx])
		}
		res.Generations = gen
		d.report(res, gen)

		if d.converged(costs) {
			res.Converged = true
			break
		}
	}
	return res, nil
}

// mutate builds the DE/rand/1/bin trial vector for target i.
func (d *DE) mutate(rng *rand.Rand, pop [][]float64, i int) []float64 {
	np := len(pop)
	dim := len(d.bounds)

	// three distinct donors, none of them the target
	var r [3]int
	for k := 0; k < 3; {
		c := rng.Intn(np)
		if c == i || (k > 0 && c == r[0]) || (k > 1 && c == r[1]) {
			continue
		}
		r[k] = c
		k++
	}

	trial := clone(pop[i])
	jrand := rng.Intn(dim)
	for k := 0; k < dim; k++ {
		if k != jrand && rng.Float64() >= d.cfg.CR {
			continue
		}
		v := pop[r[0]][k] + d.cfg.F*(pop[r[1]][k]-pop[r[2]][k])
		if v < d.bounds[k][0] {
			v = d.bounds[k][0]
		}
		if v > d.bounds[k][1] {
			v = d.bounds[k][1]
		}
		trial[k] = v
	}
	return trial
}

// evalAll fans candidates out over the worker pool. Worker w only
// ever touches scratch slot w.
func (d *DE) evalAll(ctx context.Context, obj Objective, xs [][]float64) ([]float64, error) {
	costs := make([]float64, len(xs))
	errs := make([]error, d.cfg.Workers)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < d.cfg.Workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := range jobs {
				// keep draining after an error so the sender never blocks
				if errs[worker] != nil {
					continue
				}
				c, err := obj.Evaluate(ctx, xs[i], worker)
				if err != nil {
					errs[worker] = err
					continue
				}
				costs[i] = c
			}
		}(w)
	}

	for i := range xs {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return costs, nil
}

// converged reports whether the finite population costs have
// collapsed to within the relative tolerance.
func (d *DE) converged(costs []float64) bool {
	if d.cfg.Tol <= 0 {
		return false
	}
	finite := costs[:0:0]
	for _, c := range costs {
		if !math.IsInf(c, 0) && !math.IsNaN(c) {
			finite = append(finite, c)
		}
	}
	if len(finite) < len(costs) {
		return false
	}
	mean, std := stat.MeanStdDev(finite, nil)
	return std <= d.cfg.Tol*math.Abs(mean)
}

func (d *DE) report(res *Result, gen int) {
	p := Progress{
		Generation: gen,
		BestCost:   res.Cost,
		Best:       clone(res.Best),
		Evals:      res.Evals,
	}
	res.History = append(res.History, p)
	if d.cb != nil {
		d.cb(p)
	}
}

func argmin(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x < xs[best] {
			best = i
		}
	}
	return best
}

func clone(x []float64) []float64 {
	c := make([]float64, len(x))
	copy(c, x)
	return c
}
