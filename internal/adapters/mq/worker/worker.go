// Package worker runs independent jobs over a bounded set of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/waiverintel/pkg/logger"
	"github.com/okian/waiverintel/pkg/metrics"
)

// ErrPanic marks a job that panicked.
var ErrPanic = errors.New("worker: job panicked")

// Job processes the item at index i.
type Job func(ctx context.Context, i int) error

// JobError reports a failed job by index.
type JobError struct {
	Index int
	Err   error
}

func (e JobError) Error() string { return fmt.Sprintf("job %d: %v", e.Index, e.Err) }

// Unwrap returns the job error.
func (e JobError) Unwrap() error { return e.Err }

// Pool fans jobs out over a fixed number of workers. A failing or
// panicking job never stops the remaining ones.
type Pool struct {
	size   int
	name   string
	active atomic.Int32
	logger logger.Logger
}

// NewPool creates a pool. A size below one means runtime.NumCPU().
func NewPool(size int, opts ...Option) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{size: size, name: "worker-pool"}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logger.OrNop(p.logger).Named(p.name)
	return p
}

// Size returns the worker count.
func (p *Pool) Size() int { return p.size }

// Run executes job for every index in [0, n) and returns the failures
// ordered by index. Cancelling ctx stops dispatch; undispatched indexes
// fail with the context error.
func (p *Pool) Run(ctx context.Context, n int, job Job) []JobError {
	if n <= 0 {
		return nil
	}
	workers := p.size
	if workers > n {
		workers = n
	}

	jobs := make(chan int)
	var (
		mu     sync.Mutex
		failed []JobError
		wg     sync.WaitGroup
	)
	fail := func(i int, err error) {
		mu.Lock()
		failed = append(failed, JobError{Index: i, Err: err})
		mu.Unlock()
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for i := range jobs {
				if err := p.process(ctx, name, i, job); err != nil {
					fail(i, err)
				}
			}
		}("worker-" + strconv.Itoa(w))
	}

dispatch:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < n; j++ {
				fail(j, ctx.Err())
			}
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(failed, func(a, b int) bool { return failed[a].Index < failed[b].Index })
	return failed
}

func (p *Pool) process(ctx context.Context, name string, i int, job Job) (err error) {
	start := time.Now()
	metrics.UpdateWorkerActive(int(p.active.Add(1)))
	defer func() {
		metrics.UpdateWorkerActive(int(p.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
		if r := recover(); r != nil {
			metrics.RecordWorkerPanic()
			p.logger.Error(ctx, "job panicked",
				logger.String("worker", name),
				logger.Int("index", i),
				logger.Any("panic", r),
				logger.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return job(ctx, i)
}
