// Package history persists a ledger of completed batches in SQLite so
// past runs can be inspected after the fact. One row per batch plus one
// row per entry; nothing here participates in upload control flow.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/tonimelisma/dropbox-batch-go/internal/uploader"
)

// Ledger records batch outcomes in a SQLite database. Sole-writer: the
// connection pool is capped at one to keep SQLite write semantics simple.
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
}

// Batch is one recorded batch run.
type Batch struct {
	ID        int64
	StartedAt time.Time
	Duration  time.Duration
	Files     int
	Uploaded  int
	Failed    int
	Bytes     int64
}

// Entry is one recorded per-file outcome.
type Entry struct {
	Index      int
	Name       string
	RemotePath string
	Reason     string
}

// Open opens (creating if needed) the ledger database at path and applies
// schema migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("history: creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: opening database %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()

		return nil, err
	}

	return &Ledger{db: db, logger: logger}, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// RecordBatch inserts one batch and its entries in a single transaction,
// returning the new batch id.
func (l *Ledger) RecordBatch(ctx context.Context, report *uploader.Report, startedAt time.Time) (int64, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("history: begin record: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO batches (started_at, duration_ms, files, uploaded, failed, bytes)
			VALUES (?, ?, ?, ?, ?, ?)`,
		startedAt.Unix(), report.Elapsed.Milliseconds(),
		len(report.Results), report.Uploaded, report.Failed, report.BytesUploaded,
	)
	if err != nil {
		return 0, fmt.Errorf("history: inserting batch: %w", err)
	}

	batchID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: reading batch id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO batch_entries (batch_id, idx, name, remote_path, reason)
			VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("history: preparing entry insert: %w", err)
	}
	defer stmt.Close()

	for _, result := range report.Results {
		if _, err := stmt.ExecContext(ctx,
			batchID, result.Index, result.Name, result.Path, result.Reason,
		); err != nil {
			return 0, fmt.Errorf("history: inserting entry %d: %w", result.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("history: committing record: %w", err)
	}

	l.logger.Debug("batch recorded",
		slog.Int64("batch_id", batchID),
		slog.Int("entries", len(report.Results)),
	)

	return batchID, nil
}

// Recent returns up to limit batches, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Batch, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, started_at, duration_ms, files, uploaded, failed, bytes
			FROM batches ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: querying batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch

	for rows.Next() {
		var (
			b          Batch
			startedAt  int64
			durationMS int64
		)

		if err := rows.Scan(&b.ID, &startedAt, &durationMS, &b.Files, &b.Uploaded, &b.Failed, &b.Bytes); err != nil {
			return nil, fmt.Errorf("history: scanning batch row: %w", err)
		}

		b.StartedAt = time.Unix(startedAt, 0)
		b.Duration = time.Duration(durationMS) * time.Millisecond

		batches = append(batches, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterating batch rows: %w", err)
	}

	return batches, nil
}

// Entries returns the per-file outcomes of one batch in task order.
func (l *Ledger) Entries(ctx context.Context, batchID int64) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT idx, name, remote_path, reason
			FROM batch_entries WHERE batch_id = ? ORDER BY idx`, batchID)
	if err != nil {
		return nil, fmt.Errorf("history: querying entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var e Entry

		if err := rows.Scan(&e.Index, &e.Name, &e.RemotePath, &e.Reason); err != nil {
			return nil, fmt.Errorf("history: scanning entry row: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterating entry rows: %w", err)
	}

	return entries, nil
}
