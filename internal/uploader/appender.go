package uploader

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tonimelisma/dropbox-batch-go/internal/dbx"
)

// sessionAppender transmits all chunks of one file into one pre-allocated
// upload session and produces the session's finish descriptor.
//
// Reads are confined to the dispatching goroutine: the source handle has a
// single position, so chunks are sliced strictly in file order. Only the
// materialized buffer plus its explicit cursor is handed to the chunk
// pool, where appends may run and complete in any order. The shared
// semaphore bounds true append parallelism across all files in flight.
type sessionAppender struct {
	store  Store
	chunks *semaphore.Weighted // shared across all files of the batch
	logger *slog.Logger
}

// upload appends every chunk of src to the session and returns the finish
// descriptor with the final cursor at the file's total length.
//
// On the first observed failure the task is abandoned: no further chunks
// are dispatched, in-flight sibling appends run to completion but their
// results are discarded, and the partially-written session is left to the
// store's expiry policy. There is no rollback and no retry.
func (a *sessionAppender) upload(
	ctx context.Context, src Source, id dbx.SessionID, chunkSize int64, destPath string,
) (dbx.FinishArg, error) {
	name := src.Name()
	size := src.Size()

	a.logger.Info("uploading file",
		slog.String("name", name),
		slog.Int64("size", size),
		slog.String("session_id", string(id)),
	)

	f, err := src.Open()
	if err != nil {
		return dbx.FinishArg{}, fmt.Errorf("uploader: opening %s: %w", name, err)
	}
	defer f.Close()

	// gctx only gates dispatch: a failed sibling stops further chunks from
	// being read and submitted, but appends themselves run on ctx so
	// in-flight calls are never actively canceled.
	g, gctx := errgroup.WithContext(ctx)

	var dispatchErr error

	for _, chunk := range planChunks(size, chunkSize) {
		buf := make([]byte, chunk.Length)
		if _, readErr := io.ReadFull(f, buf); readErr != nil {
			dispatchErr = fmt.Errorf("uploader: reading %s at offset %d: %w", name, chunk.Offset, readErr)

			break
		}

		if acqErr := a.chunks.Acquire(gctx, 1); acqErr != nil {
			dispatchErr = fmt.Errorf("uploader: %s aborted: %w", name, acqErr)

			break
		}

		cursor := dbx.Cursor{SessionID: id, Offset: chunk.Offset}
		closeSession := chunk.Final

		g.Go(func() error {
			defer a.chunks.Release(1)

			if appendErr := a.store.AppendToSession(ctx, cursor, buf, closeSession); appendErr != nil {
				return fmt.Errorf("uploader: appending %s at offset %d: %w", name, cursor.Offset, appendErr)
			}

			return nil
		})
	}

	if waitErr := g.Wait(); waitErr != nil {
		return dbx.FinishArg{}, waitErr
	}

	if dispatchErr != nil {
		return dbx.FinishArg{}, dispatchErr
	}

	a.logger.Debug("file appended",
		slog.String("name", name),
		slog.Int64("size", size),
	)

	return dbx.FinishArg{
		Cursor: dbx.Cursor{SessionID: id, Offset: size},
		Commit: dbx.CommitInfo{Path: destPath, Mode: "add"},
	}, nil
}
