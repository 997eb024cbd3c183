package solver

import (
	"context"
	"sync"
)

// Evaluator executes the objective over a batch of independent assignments
// and returns the scores in the same order as the batch. How the batch is
// computed is up to the implementation; the objective is assumed pure, so
// sequential and parallel evaluators are interchangeable.
type Evaluator func(ctx context.Context, f Objective, batch []Assignment) ([]float64, error)

// Sequential returns an evaluator that scores the batch one assignment at a
// time on the calling goroutine.
func Sequential() Evaluator {
	return func(ctx context.Context, f Objective, batch []Assignment) ([]float64, error) {
		scores := make([]float64, len(batch))
		for i, params := range batch {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			score, err := f(params)
			if err != nil {
				return nil, err
			}
			scores[i] = score
		}
		return scores, nil
	}
}

// Pool returns an evaluator that scores the batch on up to workers
// goroutines. Results are written by batch index, so ordering matches the
// input regardless of completion order. The first error observed wins; the
// remaining evaluations still run to completion before it is returned.
func Pool(workers int) Evaluator {
	if workers < 1 {
		workers = 1
	}
	return func(ctx context.Context, f Objective, batch []Assignment) ([]float64, error) {
		scores := make([]float64, len(batch))
		jobs := make(chan int)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			firstErr error
		)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					if ctx.Err() != nil {
						continue
					}
					score, err := f(batch[i])
					if err != nil {
						mu.Lock()
						if firstErr == nil {
							firstErr = err
						}
						mu.Unlock()
						continue
					}
					scores[i] = score
				}
			}()
		}

		for i := range batch {
			jobs <- i
		}
		close(jobs)
		wg.Wait()

		if firstErr != nil {
			return nil, firstErr
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return scores, nil
	}
}
