package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"NightScan/pkg/logger"
)

// Task is one unit of prioritized work. Higher priority dispatches first.
type Task struct {
	Key      string
	Priority float64
	Run      func(ctx context.Context) error
}

// TaskResult records one task's outcome. A failed task never aborts the
// remaining queue; failure isolation is the caller's contract.
type TaskResult struct {
	Key      string
	Err      error
	Duration time.Duration
}

// Config holds runner settings.
type Config struct {
	Workers int
}

// Runner executes a batch of prioritized tasks with bounded concurrency.
// Tasks are dispatched strictly in descending priority order; with one
// worker this degenerates to sequential priority execution.
type Runner struct {
	logger  *logger.Logger
	workers int
}

// NewRunner creates a task runner.
func NewRunner(lgr *logger.Logger, cfg *Config) *Runner {
	workers := 1
	if cfg != nil && cfg.Workers > 0 {
		workers = cfg.Workers
	}
	return &Runner{logger: lgr, workers: workers}
}

// Execute runs all tasks and returns their results in dispatch order.
// Dispatch stops early when ctx is cancelled; already-dispatched tasks
// finish and report.
func (r *Runner) Execute(ctx context.Context, tasks []Task) []TaskResult {
	if len(tasks) == 0 {
		return nil
	}

	ordered := make([]Task, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	results := make([]TaskResult, len(ordered))
	taskCh := make(chan int) // unbuffered so dispatch order is priority order
	var wg sync.WaitGroup

	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range taskCh {
				t := ordered[i]
				start := time.Now()
				err := t.Run(ctx)
				results[i] = TaskResult{Key: t.Key, Err: err, Duration: time.Since(start)}
				if err != nil {
					r.logger.Warn("task failed",
						logger.String("key", t.Key),
						logger.Error(err))
				}
			}
		}()
	}

dispatch:
	for i := range ordered {
		if ctx.Err() != nil {
			break
		}
		select {
		case taskCh <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(taskCh)
	wg.Wait()

	out := make([]TaskResult, 0, len(results))
	for _, res := range results {
		if res.Key != "" {
			out = append(out, res)
		}
	}
	return out
}
