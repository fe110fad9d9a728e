// Package coordinator runs a set of per-dataset tasks with a bounded
// worker pool, grounded on MedallionProcess/BronzeLayer.py's
// ThreadPoolExecutor usage but changed per spec.md §4.1/§7: wait for
// every task to finish and surface the first error at the stage boundary,
// rather than re-raising as soon as the first submitted future resolves.
package coordinator

import (
	"context"
	"sync"
)

// Task is one dataset's unit of work for a stage.
type Task[T any] struct {
	Item T
	Run  func(ctx context.Context, item T) error
}

// Result captures one task's outcome, keyed back to its input item so
// callers can attribute failures to a dataset.
type Result[T any] struct {
	Item T
	Err  error
}

// Run executes tasks across min(maxWorkers, len(tasks)) goroutines,
// blocking until every task completes. It returns every result in input
// order, and separately the first error encountered (in submission order),
// matching spec.md's "wait for all, surface the first error" contract.
func Run[T any](ctx context.Context, maxWorkers int, tasks []Task[T]) ([]Result[T], error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	workers := maxWorkers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	if workers < 1 {
		workers = 1
	}

	results := make([]Result[T], len(tasks))

	indices := make(chan int)

	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range indices {
				err := tasks[i].Run(ctx, tasks[i].Item)
				results[i] = Result[T]{Item: tasks[i].Item, Err: err}
			}
		}()
	}

	for i := range tasks {
		indices <- i
	}

	close(indices)
	wg.Wait()

	for _, r := range results {
		if r.Err != nil {
			return results, r.Err
		}
	}

	return results, nil
}
