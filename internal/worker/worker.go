package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/yuya-takeyama/differy/internal/checksum"
	"github.com/yuya-takeyama/differy/internal/walker"
)

// DefaultConcurrency is the hashing pool size used when none is configured.
const DefaultConcurrency = 8

// Result represents the hash of one file
type Result struct {
	File  walker.FileInfo
	Hash  string
	Error error
}

// Pool manages concurrent hashing workers
type Pool struct {
	concurrency int
}

// NewPool creates a new worker pool
func NewPool(concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Pool{
		concurrency: concurrency,
	}
}

// Execute hashes every file and returns one result per file, in input order.
// The first hashing failure is returned as the error; per-file errors are
// also recorded in the results. Cancellation is observed between files.
func (p *Pool) Execute(ctx context.Context, files []walker.FileInfo) ([]Result, error) {
	type job struct {
		idx  int
		file walker.FileInfo
	}

	jobs := make(chan job, len(files))
	results := make([]Result, len(files))

	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	workers := p.concurrency
	if workers > len(files) {
		workers = len(files)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for j := range jobs {
				result := Result{File: j.file}

				if err := ctx.Err(); err != nil {
					result.Error = err
				} else {
					hash, err := checksum.CalculateFileSHA256(j.file.Path)
					if err != nil {
						err = fmt.Errorf("hash %s: %w", j.file.RelPath, err)
					}
					result.Hash = hash
					result.Error = err
				}

				if result.Error != nil {
					errOnce.Do(func() { firstErr = result.Error })
				}
				results[j.idx] = result
			}
		}()
	}

	for i, f := range files {
		jobs <- job{idx: i, file: f}
	}
	close(jobs)

	wg.Wait()

	if firstErr != nil {
		return results, firstErr
	}
	return results, nil
}

// Stats tracks hashing statistics
type Stats struct {
	Hashed      int64
	Errors      int64
	BytesHashed int64
}

// UpdateStats updates statistics from results
func UpdateStats(stats *Stats, results []Result) {
	for _, result := range results {
		if result.Error != nil {
			atomic.AddInt64(&stats.Errors, 1)
			continue
		}
		atomic.AddInt64(&stats.Hashed, 1)
		atomic.AddInt64(&stats.BytesHashed, result.File.Size)
	}
}
