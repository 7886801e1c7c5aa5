// Package worker implements a bounded worker pool for per-file preview tasks.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mtiwari1/filehaven/internal/metrics"
	"github.com/mtiwari1/filehaven/internal/source"
)

// ErrPoolClosed is reported for jobs submitted after Shutdown.
var ErrPoolClosed = errors.New("worker: pool closed")

// Previewer renders the preview of one file.
type Previewer interface {
	Generate(ctx context.Context, f source.File) (string, error)
}

// Job is one preview task. Index is echoed back in the Result so callers can
// re-associate results positionally. Reply must have room for one Result or
// be drained by the caller.
type Job struct {
	Ctx   context.Context
	Index int
	File  source.File
	Reply chan<- Result
}

// Result is the outcome of a Job. A failed task carries Err and an empty
// Preview; it never blocks other jobs.
type Result struct {
	Index   int
	Preview string
	Err     error
	Latency time.Duration
}

// Pool runs a fixed set of goroutines that render previews.
type Pool struct {
	workers   int
	previewer Previewer
	jobs      chan Job
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	logger    *slog.Logger

	closeOnce sync.Once
}

// NewPool creates a pool with the given number of workers.
// Call Start() to launch the goroutines.
func NewPool(workers int, previewer Previewer, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers:   workers,
		previewer: previewer,
		jobs:      make(chan Job, workers*2),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit enqueues a job, blocking while the queue is full.
// Returns false if the pool has been shut down.
func (p *Pool) Submit(job Job) (ok bool) {
	defer func() {
		// Sending on the closed jobs channel after Shutdown.
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case <-p.ctx.Done():
		return false
	default:
	}
	select {
	case p.jobs <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Shutdown stops accepting jobs, lets the workers drain what is queued and
// waits for them. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.closeOnce.Do(func() {
		p.cancel()
		close(p.jobs)
	})
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		p.process(id, job)
	}
	p.logger.Debug("worker exiting", slog.Int("worker_id", id))
}

// process renders one preview and always sends exactly one Result.
func (p *Pool) process(workerID int, job Job) {
	ctx := job.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	preview, err := p.generate(ctx, job.File)
	latency := time.Since(start)
	metrics.PreviewDuration.Observe(latency.Seconds())

	switch {
	case err != nil:
		metrics.Previews.WithLabelValues("failed").Inc()
		p.logger.WarnContext(ctx, "preview failed",
			slog.Int("worker_id", workerID),
			slog.String("file", job.File.Name()),
			slog.Duration("latency", latency),
			slog.String("error", err.Error()),
		)
	case preview == "":
		metrics.Previews.WithLabelValues("none").Inc()
	default:
		metrics.Previews.WithLabelValues("generated").Inc()
		p.logger.DebugContext(ctx, "preview generated",
			slog.Int("worker_id", workerID),
			slog.String("file", job.File.Name()),
			slog.Duration("latency", latency),
		)
	}

	job.Reply <- Result{Index: job.Index, Preview: preview, Err: err, Latency: latency}
}

func (p *Pool) generate(ctx context.Context, f source.File) (preview string, err error) {
	defer func() {
		if r := recover(); r != nil {
			preview, err = "", fmt.Errorf("worker: preview panic: %v", r)
		}
	}()
	return p.previewer.Generate(ctx, f)
}
