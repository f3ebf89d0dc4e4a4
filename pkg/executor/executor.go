package executor

import (
	"context"
	"sync"

	"github.com/yuya-takeyama/differy/pkg/archive"
	"github.com/yuya-takeyama/differy/pkg/logger"
)

// Job builds one output archive. Two jobs in the same batch must never
// write the same path.
type Job struct {
	Phase string
	Name  string
	Run   func(ctx context.Context) (archive.Result, error)
}

type Result struct {
	Job     Job
	Archive archive.Result
	Error   error
}

type Executor struct {
	logger      logger.Logger
	concurrency int
}

func NewExecutor(logger logger.Logger, concurrency int) *Executor {
	if concurrency <= 0 {
		concurrency = 2
	}
	return &Executor{
		logger:      logger,
		concurrency: concurrency,
	}
}

// Execute runs jobs with bounded concurrency and returns one result per job
// in input order.
func (e *Executor) Execute(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for i, job := range jobs {
		wg.Add(1)
		go func(idx int, j Job) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				results[idx] = Result{Job: j, Error: err}
				return
			}

			res, err := j.Run(ctx)
			if err == nil {
				e.logger.ItemProcessed(j.Phase, res.Path, "write")
			}

			results[idx] = Result{
				Job:     j,
				Archive: res,
				Error:   err,
			}
		}(i, job)
	}

	wg.Wait()
	return results
}

// FirstError returns the error of the first failed job, if any.
func FirstError(results []Result) error {
	for _, r := range results {
		if r.Error != nil {
			return r.Error
		}
	}
	return nil
}
