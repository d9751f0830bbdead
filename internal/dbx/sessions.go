package dbx

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
)

// API paths for the upload-session batch lifecycle.
const (
	pathStartBatch  = "/files/upload_session/start_batch"
	pathAppend      = "/files/upload_session/append_v2"
	pathFinishBatch = "/files/upload_session/finish_batch"
	pathFinishCheck = "/files/upload_session/finish_batch/check"
)

// StartSessions pre-allocates count concurrent-type upload sessions in a
// single call. Concurrent sessions accept appends addressed by explicit
// byte offset, so a file's chunks may arrive in any order.
func (c *Client) StartSessions(ctx context.Context, count int) ([]SessionID, error) {
	c.logger.Info("starting upload sessions", slog.Int("count", count))

	arg := startBatchArg{
		NumSessions: count,
		SessionType: sessionType{Tag: "concurrent"},
	}

	var result startBatchResult
	if err := c.rpc(ctx, pathStartBatch, arg, &result); err != nil {
		return nil, err
	}

	if len(result.SessionIDs) != count {
		return nil, fmt.Errorf("dbx: requested %d sessions, received %d", count, len(result.SessionIDs))
	}

	return result.SessionIDs, nil
}

// AppendToSession transmits one chunk at the cursor's offset. closeSession
// marks the chunk as the session's last, sealing it for the batch finish
// call. Append calls are not retried; on failure the session is abandoned.
func (c *Client) AppendToSession(ctx context.Context, cursor Cursor, data []byte, closeSession bool) error {
	c.logger.Debug("appending to upload session",
		slog.String("session_id", string(cursor.SessionID)),
		slog.Int64("offset", cursor.Offset),
		slog.Int("length", len(data)),
		slog.Bool("close", closeSession),
	)

	arg := appendArg{Cursor: cursor, Close: closeSession}

	return c.content(ctx, pathAppend, arg, bytes.NewReader(data))
}

// FinishBatch commits all sessions of one batch in a single call, in the
// order given. The result is either the completed per-entry outcomes or an
// async job id to poll via PollBatchFinish.
func (c *Client) FinishBatch(ctx context.Context, entries []FinishArg) (*FinishLaunch, error) {
	c.logger.Info("finishing batch", slog.Int("entries", len(entries)))

	var launch finishLaunchWire
	if err := c.rpc(ctx, pathFinishBatch, finishBatchArg{Entries: entries}, &launch); err != nil {
		return nil, err
	}

	switch launch.Tag {
	case "complete":
		return &FinishLaunch{Complete: toEntries(launch.Entries)}, nil
	case "async_job_id":
		if launch.AsyncJobID == "" {
			return nil, fmt.Errorf("dbx: finish batch returned empty async job id")
		}

		return &FinishLaunch{AsyncJobID: launch.AsyncJobID}, nil
	default:
		return nil, fmt.Errorf("dbx: unrecognized finish batch result %q", launch.Tag)
	}
}

// PollBatchFinish checks an asynchronous batch finish job once.
func (c *Client) PollBatchFinish(ctx context.Context, jobID string) (*FinishStatus, error) {
	c.logger.Debug("checking batch finish", slog.String("async_job_id", jobID))

	var status finishLaunchWire
	if err := c.rpc(ctx, pathFinishCheck, checkArg{AsyncJobID: jobID}, &status); err != nil {
		return nil, err
	}

	switch status.Tag {
	case "in_progress":
		return &FinishStatus{InProgress: true}, nil
	case "complete":
		return &FinishStatus{Entries: toEntries(status.Entries)}, nil
	default:
		return nil, fmt.Errorf("dbx: unrecognized finish check result %q", status.Tag)
	}
}
