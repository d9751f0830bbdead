package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tonimelisma/dropbox-batch-go/internal/dbx"
)

// maxBatchEntries is the store-imposed ceiling on sessions per batch.
const maxBatchEntries = 1000

// Defaults applied by NewCoordinator for zero-valued options.
const (
	defaultChunkSize      = 2 * ChunkAlignment // 8 MiB
	defaultParallelFiles  = 4
	defaultParallelChunks = 8
	defaultPollInterval   = 500 * time.Millisecond
)

// Options configure a Coordinator. Zero values take defaults; a non-zero
// ChunkSize must be a positive multiple of ChunkAlignment.
type Options struct {
	ChunkSize      int64         // bytes per append call
	ParallelFiles  int           // outer pool: files in flight
	ParallelChunks int           // inner pool: appends in flight, shared across files
	RemoteFolder   string        // destination folder prefix
	PollInterval   time.Duration // fixed interval between finish polls
}

// Coordinator orchestrates one batch: it pre-allocates sessions, fans out
// session appenders across the outer pool, collects finish descriptors,
// drives the two-phase commit, and reconciles per-entry outcomes.
type Coordinator struct {
	store  Store
	opts   Options
	logger *slog.Logger

	// sleepFunc waits between finish polls. Tests override it to avoid
	// real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewCoordinator validates options and returns a ready Coordinator.
// Chunk-size misalignment is a hard precondition failure here, before any
// batch is attempted.
func NewCoordinator(store Store, opts Options, logger *slog.Logger) (*Coordinator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if opts.ChunkSize == 0 {
		opts.ChunkSize = defaultChunkSize
	}

	if opts.ChunkSize <= 0 || opts.ChunkSize%ChunkAlignment != 0 {
		return nil, fmt.Errorf(
			"uploader: chunk size %d must be a positive multiple of %d for concurrent sessions",
			opts.ChunkSize, int64(ChunkAlignment),
		)
	}

	if opts.ParallelFiles <= 0 {
		opts.ParallelFiles = defaultParallelFiles
	}

	if opts.ParallelChunks <= 0 {
		opts.ParallelChunks = defaultParallelChunks
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	return &Coordinator{
		store:     store,
		opts:      opts,
		logger:    logger,
		sleepFunc: sleepCtx,
	}, nil
}

// Run uploads all files as one batch and returns the per-entry results.
//
// Any append failure aborts the whole batch before the finish call:
// already-durable chunks of unaffected files are stranded in open sessions
// that are never committed, matching the all-or-nothing commit semantics
// of the batch. Per-entry commit rejections, by contrast, are reported in
// the Report while sibling entries may still succeed.
func (c *Coordinator) Run(ctx context.Context, files []Source) (*Report, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("uploader: no files to upload")
	}

	if len(files) > maxBatchEntries {
		return nil, fmt.Errorf("uploader: batch of %d files exceeds the %d-entry ceiling", len(files), maxBatchEntries)
	}

	start := time.Now()

	c.logger.Info("starting batch",
		slog.Int("files", len(files)),
		slog.Int64("chunk_size", c.opts.ChunkSize),
		slog.Int("parallel_files", c.opts.ParallelFiles),
		slog.Int("parallel_chunks", c.opts.ParallelChunks),
	)

	ids, err := c.store.StartSessions(ctx, len(files))
	if err != nil {
		return nil, fmt.Errorf("uploader: starting sessions: %w", err)
	}

	args, err := c.appendAll(ctx, files, ids)
	if err != nil {
		return nil, err
	}

	entries, err := c.finish(ctx, args)
	if err != nil {
		return nil, err
	}

	results := reconcile(entries, args, c.logger)

	report := buildReport(results, args, time.Since(start))

	c.logger.Info("batch complete",
		slog.Int("uploaded", report.Uploaded),
		slog.Int("failed", report.Failed),
		slog.Int64("bytes", report.BytesUploaded),
		slog.Duration("elapsed", report.Elapsed),
	)

	return report, nil
}

// appendAll runs one session appender per file on the outer pool and
// collects finish descriptors in original file order. The first task
// failure aborts the batch; remaining queued tasks are not started.
func (c *Coordinator) appendAll(ctx context.Context, files []Source, ids []dbx.SessionID) ([]dbx.FinishArg, error) {
	appender := &sessionAppender{
		store:  c.store,
		chunks: semaphore.NewWeighted(int64(c.opts.ParallelChunks)),
		logger: c.logger,
	}

	// One write-once slot per task; g.Wait orders the writes before the
	// read below, so no mutex is needed.
	args := make([]dbx.FinishArg, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.ParallelFiles)

	for i, src := range files {
		i, src := i, src
		g.Go(func() error {
			dest := path.Join("/", c.opts.RemoteFolder, src.Name())

			arg, err := appender.upload(gctx, src, ids[i], c.opts.ChunkSize, dest)
			if err != nil {
				return err
			}

			args[i] = arg

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return args, nil
}

// finish drives the two-phase commit: one finish call, then fixed-interval
// polling while the job reports in progress. The finish call is issued
// exactly once. Polling has no attempt ceiling; ctx cancellation is the
// caller's bound on a stuck job.
func (c *Coordinator) finish(ctx context.Context, args []dbx.FinishArg) ([]dbx.FinishEntry, error) {
	launch, err := c.store.FinishBatch(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("uploader: finishing batch: %w", err)
	}

	if launch.Complete != nil {
		return launch.Complete, nil
	}

	if launch.AsyncJobID == "" {
		return nil, fmt.Errorf("uploader: finish returned neither entries nor an async job id")
	}

	c.logger.Info("polling batch finish",
		slog.String("async_job_id", launch.AsyncJobID),
		slog.Duration("interval", c.opts.PollInterval),
	)

	for {
		if err := c.sleepFunc(ctx, c.opts.PollInterval); err != nil {
			return nil, fmt.Errorf("uploader: polling canceled: %w", err)
		}

		status, err := c.store.PollBatchFinish(ctx, launch.AsyncJobID)
		if err != nil {
			return nil, fmt.Errorf("uploader: checking batch finish: %w", err)
		}

		if status.InProgress {
			c.logger.Debug("batch finish still in progress")

			continue
		}

		return status.Entries, nil
	}
}

// sleepCtx waits for the given duration or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
