package runner

import (
	"context"
	"sync"
)

type Job func(ctx context.Context) error

// RunPool executes jobs with at most maxWorkers concurrently and returns
// every error. Jobs not yet started when ctx is cancelled are skipped and
// reported as ctx.Err().
func RunPool(ctx context.Context, maxWorkers int, jobs []Job) []error {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}
	sem := make(chan struct{}, maxWorkers)

	for _, job := range jobs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			record(ctx.Err())
			continue
		}
		wg.Add(1)
		go func(j Job) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := j(ctx); err != nil {
				record(err)
			}
		}(job)
	}
	wg.Wait()
	return errs
}

// RunSequential executes jobs one at a time in order.
func RunSequential(ctx context.Context, jobs []Job) []error {
	var errs []error
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := j(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
