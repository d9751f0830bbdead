package localfs

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes one folder and emits batches of files once writes have
// settled. New and modified files accumulate until no event arrives for
// the settle interval; the quiet period keeps half-written files out of
// upload batches.
type Watcher struct {
	dir    string
	settle time.Duration
	logger *slog.Logger
	fsw    *fsnotify.Watcher
}

// NewWatcher creates a Watcher on dir with the given settle interval.
func NewWatcher(dir string, settle time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("localfs: creating watcher: %w", err)
	}

	if err := fsw.Add(dir); err != nil {
		fsw.Close()

		return nil, fmt.Errorf("localfs: watching %s: %w", dir, err)
	}

	return &Watcher{
		dir:    dir,
		settle: settle,
		logger: logger,
		fsw:    fsw,
	}, nil
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run blocks processing events until ctx is canceled, invoking handle with
// each settled batch sorted by name. handle runs on the watch goroutine,
// so events arriving during an upload accumulate and form the next batch.
func (w *Watcher) Run(ctx context.Context, handle func([]*File)) error {
	pending := make(map[string]bool)

	timer := time.NewTimer(w.settle)
	defer timer.Stop()

	stopTimer(timer)

	w.logger.Info("watching folder",
		slog.String("dir", w.dir),
		slog.Duration("settle", w.settle),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			if skipNames[filepath.Base(event.Name)] {
				continue
			}

			pending[event.Name] = true

			stopTimer(timer)
			timer.Reset(w.settle)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn("watch error", slog.String("error", err.Error()))

		case <-timer.C:
			batch := w.settleBatch(pending)
			pending = make(map[string]bool)

			if len(batch) > 0 {
				handle(batch)
			}
		}
	}
}

// settleBatch stats all pending paths and returns the ones that are still
// regular files, sorted by destination name. Files deleted or replaced by
// directories between the event and the settle point are dropped.
func (w *Watcher) settleBatch(pending map[string]bool) []*File {
	batch := make([]*File, 0, len(pending))

	for path := range pending {
		file, err := Stat(path)
		if err != nil {
			w.logger.Debug("skipping unsettled path",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)

			continue
		}

		batch = append(batch, file)
	}

	slices.SortFunc(batch, func(a, b *File) int {
		return cmp.Compare(a.Name(), b.Name())
	})

	return batch
}

// stopTimer halts a timer and drains its channel if it already fired.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
