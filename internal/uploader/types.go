// Package uploader implements the parallel, chunked batch upload pipeline:
// chunk planning, concurrent session appends under bounded worker pools,
// the two-phase batch commit, and per-entry result reconciliation.
package uploader

import (
	"context"
	"io"

	"github.com/tonimelisma/dropbox-batch-go/internal/dbx"
)

// Store is the remote surface the uploader drives. *dbx.Client implements
// it; tests substitute an in-memory fake.
type Store interface {
	StartSessions(ctx context.Context, count int) ([]dbx.SessionID, error)
	AppendToSession(ctx context.Context, cursor dbx.Cursor, data []byte, closeSession bool) error
	FinishBatch(ctx context.Context, entries []dbx.FinishArg) (*dbx.FinishLaunch, error)
	PollBatchFinish(ctx context.Context, jobID string) (*dbx.FinishStatus, error)
}

// Source is one local file staged for upload. Size must report the exact
// byte count that Open's reader will produce; the final append cursor is
// derived from it.
type Source interface {
	// Name returns the destination file name (no directory components).
	Name() string
	// Size returns the file's byte length.
	Size() int64
	// Open returns a reader positioned at the start of the file. The
	// uploader reads it sequentially from a single goroutine and closes it.
	Open() (io.ReadCloser, error)
}

// EntryResult is the per-file outcome of one batch, keyed by task index.
// Exactly one of Path or Reason is set.
type EntryResult struct {
	Index  int
	Name   string
	Path   string // remote path on success
	Reason string // store-provided failure reason
}

// Failed reports whether the entry's commit was rejected.
func (r EntryResult) Failed() bool {
	return r.Reason != ""
}
