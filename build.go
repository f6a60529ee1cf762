package qmps

import (
	"golang.org/x/sync/errgroup"
)

/*
buildCircuits normalizes the raw programs in parallel. The batch is split
into disjoint contiguous index ranges, one worker per range, each writing
only its own slice cells. A failing item does not stop its worker: the
range is always completed so the batch has no half-built tail, and only
the first error each worker saw is reported. errgroup then surfaces the
first of those after all workers have joined.
*/
func buildCircuits(programs []Program, bindings []SymbolMap, workers int) ([]Circuit, error) {
	b := len(programs)
	circuits := make([]Circuit, b)

	if workers > b {
		workers = b
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (b + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < b; start += chunk {
		end := start + chunk
		if end > b {
			end = b
		}
		g.Go(func() error {
			var first error
			for i := start; i < end; i++ {
				c, err := Normalize(programs[i], bindings[i])
				if err != nil {
					if first == nil {
						first = &NormalizeError{Circuit: i, Err: err}
					}
					continue
				}
				circuits[i] = c
			}
			return first
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return circuits, nil
}
