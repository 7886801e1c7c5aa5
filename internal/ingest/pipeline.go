// Package ingest turns a batch of dropped files into file records: each file
// is classified, previewed on the worker pool and given an id, and the batch
// is committed to the collection in one step.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mtiwari1/filehaven/internal/category"
	"github.com/mtiwari1/filehaven/internal/collection"
	"github.com/mtiwari1/filehaven/internal/metrics"
	"github.com/mtiwari1/filehaven/internal/notify"
	"github.com/mtiwari1/filehaven/internal/source"
	"github.com/mtiwari1/filehaven/internal/worker"
)

var (
	ErrNilFile    = errors.New("ingest: nil file handle")
	ErrPoolClosed = errors.New("ingest: preview pool rejected job")
)

// BatchError reports a batch that was aborted. Nothing of the batch was
// committed.
type BatchError struct {
	Files int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("ingest: batch of %d files failed: %v", e.Files, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Submitter queues preview jobs; *worker.Pool implements it.
type Submitter interface {
	Submit(job worker.Job) bool
}

// Pipeline ingests batches into a collection.
type Pipeline struct {
	registry *category.Registry
	pool     Submitter
	store    *collection.Store
	notifier notify.Notifier
	logger   *slog.Logger

	newID func() string
	now   func() time.Time
}

// NewPipeline wires a pipeline. Dependencies are injected; nothing is global.
func NewPipeline(
	registry *category.Registry,
	pool Submitter,
	store *collection.Store,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		registry: registry,
		pool:     pool,
		store:    store,
		notifier: notifier,
		logger:   logger,
		newID:    func() string { return uuid.New().String() },
		now:      time.Now,
	}
}

// Ingest processes files and returns the committed records in input order.
//
// The pipeline owns the handles from the moment Ingest is called: they move
// into the returned records, or are released when the batch fails. An empty
// batch returns immediately without side effects. Per-file preview failures
// only drop that file's preview; anything else aborts the whole batch with a
// *BatchError and leaves the collection untouched.
func (p *Pipeline) Ingest(ctx context.Context, files []source.File) ([]collection.FileRecord, error) {
	if len(files) == 0 {
		return nil, nil
	}

	start := time.Now()
	records, err := p.commit(ctx, files)
	if err != nil {
		return nil, p.fail(ctx, files, err)
	}

	metrics.Batches.WithLabelValues("ok").Inc()
	for _, r := range records {
		metrics.FilesIngested.WithLabelValues(r.CategoryID).Inc()
	}
	metrics.FilesCurrent.Set(float64(p.store.Len()))

	p.logger.InfoContext(ctx, "batch ingested",
		slog.Int("files", len(records)),
		slog.Duration("latency", time.Since(start)),
	)
	p.notifier.Notify(ctx, notify.LevelInfo, "Files Added",
		fmt.Sprintf("%d files have been categorized.", len(files)))

	return records, nil
}

// commit builds the records and inserts them. A panic in either step fails
// the batch; once InsertBatch has returned the records belong to the store.
func (p *Pipeline) commit(ctx context.Context, files []source.File) (records []collection.FileRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	records, err = p.build(ctx, files)
	if err != nil {
		return nil, err
	}
	if err := p.store.InsertBatch(records); err != nil {
		return nil, err
	}
	return records, nil
}

// build classifies every file against one registry snapshot and joins the
// preview results by position.
func (p *Pipeline) build(ctx context.Context, files []source.File) ([]collection.FileRecord, error) {
	for i, f := range files {
		if f == nil {
			return nil, fmt.Errorf("file %d: %w", i, ErrNilFile)
		}
	}

	cats := p.registry.Snapshot()

	// Buffered for the whole batch so workers never block on an abandoned join.
	reply := make(chan worker.Result, len(files))
	for i, f := range files {
		if !p.pool.Submit(worker.Job{Ctx: ctx, Index: i, File: f, Reply: reply}) {
			return nil, fmt.Errorf("file %d: %w", i, ErrPoolClosed)
		}
	}

	previews := make([]string, len(files))
	for range files {
		res := <-reply
		if res.Err != nil {
			// A missing preview is not a batch failure.
			continue
		}
		previews[res.Index] = res.Preview
	}

	now := p.now()
	records := make([]collection.FileRecord, len(files))
	for i, f := range files {
		records[i] = collection.FileRecord{
			ID:         p.newID(),
			Source:     f,
			CategoryID: category.Classify(f.Name(), cats),
			Preview:    previews[i],
			AddedAt:    now,
		}
	}
	return records, nil
}

func (p *Pipeline) fail(ctx context.Context, files []source.File, cause error) error {
	for _, f := range files {
		if f == nil {
			continue
		}
		if err := f.Release(); err != nil {
			p.logger.WarnContext(ctx, "release handle", slog.String("file", f.Name()), slog.String("error", err.Error()))
		}
	}

	metrics.Batches.WithLabelValues("failed").Inc()
	p.logger.ErrorContext(ctx, "batch failed",
		slog.Int("files", len(files)),
		slog.String("error", cause.Error()),
	)
	p.notifier.Notify(ctx, notify.LevelError, "Error Processing Files",
		"There was an error processing your files.")

	return &BatchError{Files: len(files), Err: cause}
}
