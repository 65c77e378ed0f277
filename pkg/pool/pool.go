package pool

import (
	"context"
	"sync"
)

// WorkerFunc defines the function signature for a worker that processes an item and may return an error.
type WorkerFunc[T any] func(ctx context.Context, item T) error

// Run processes items on numWorkers goroutines and returns the errors the
// workers reported, in no particular order. numWorkers below 1 means 1.
func Run[T any](ctx context.Context, items []T, numWorkers int, workerFunc WorkerFunc[T]) []error {
	if numWorkers < 1 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	taskChan := make(chan T, numWorkers)
	errChan := make(chan error, len(items))

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range taskChan {
				select {
				case <-ctx.Done():
					return
				default:
					if err := workerFunc(ctx, item); err != nil {
						errChan <- err
					}
				}
			}
		}()
	}

OUT:
	for _, item := range items {
		select {
		case taskChan <- item:
		case <-ctx.Done():
			break OUT
		}
	}
	close(taskChan)

	wg.Wait()
	close(errChan)

	var allErrors []error
	for err := range errChan {
		allErrors = append(allErrors, err)
	}
	return allErrors
}

// Task is one unit of work for All.
type Task func(ctx context.Context) error

// All runs every task concurrently and returns the first error in task
// order. The context passed to the tasks is cancelled as soon as one fails.
func All(ctx context.Context, tasks ...Task) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make([]error, len(tasks))
	indexes := make([]int, len(tasks))
	for i := range indexes {
		indexes[i] = i
	}

	Run(ctx, indexes, len(tasks), func(ctx context.Context, i int) error {
		if errs[i] = tasks[i](ctx); errs[i] != nil {
			cancel()
		}
		return nil
	})

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}
