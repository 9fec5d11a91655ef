// Package sampler picks the random training subset a fit runs
// against. Fits rarely use every reference structure; a seeded subset
// keeps runs cheap and reproducible.
package sampler

import (
	"fmt"
	"math/rand"
	"sort"
)

// Sample draws k distinct indices from [0, n) by rejection sampling
// without replacement: draw, skip anything already chosen, repeat.
// The result is sorted. A fixed seed gives a fixed subset.
func Sample(n, k int, seed int64) ([]int, error) {
	if n <= 0 {
		return nil, fmt.Errorf("nothing to sample from (n = %d)", n)
	}
	if k <= 0 || k > n {
		return nil, fmt.Errorf("cannot sample %d of %d items", k, n)
	}

	rng := rand.New(rand.NewSource(seed))
	chosen := make(map[int]bool, k)
	out := make([]int, 0, k)
	for len(out) < k {
		i := rng.Intn(n)
		if chosen[i] {
			continue
		}
		chosen[i] = true
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

// Pick applies Sample to an arbitrary name list and returns the
// chosen names, preserving the input order.
func Pick(names []string, k int, seed int64) ([]string, error) {
	idx, err := Sample(len(names), k, seed)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = names[j]
	}
	return out, nil
}
