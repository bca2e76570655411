package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// ScanMode is how a scan decided which files to run detectors over
type ScanMode string

const (
	ModeFull        ScanMode = "full"
	ModeIncremental ScanMode = "incremental"
	ModeNoop        ScanMode = "noop"
)

// RunWarning is a note attached to a scan run
type RunWarning struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
}

// ScanRun is one row of scan history
type ScanRun struct {
	ID             int64         `json:"id"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	Mode           ScanMode      `json:"mode"`
	Commit         string        `json:"commit,omitempty"`
	FilesTotal     int           `json:"files_total"`
	FilesScanned   int           `json:"files_scanned"`
	FilesAdded     int           `json:"files_added"`
	FilesModified  int           `json:"files_modified"`
	FilesRemoved   int           `json:"files_removed"`
	FilesUnchanged int           `json:"files_unchanged"`
	Components     int           `json:"components"`
	Connections    int           `json:"connections"`
	RecordsWritten int           `json:"records_written"`
	WarningCount   int           `json:"warning_count"`
	Warnings       []RunWarning  `json:"warnings,omitempty"`
}

// History is the scan-run log kept in history.db
type History struct {
	db *DB
}

// OpenHistory opens the history database at path
func OpenHistory(path string, logger *slog.Logger) (*History, error) {
	db, err := OpenDB(path, logger)
	if err != nil {
		return nil, err
	}
	return &History{db: db}, nil
}

// Close closes the underlying database
func (h *History) Close() error {
	return h.db.Close()
}

// RecordRun stores run and its warnings, returning the new row ID
func (h *History) RecordRun(ctx context.Context, run *ScanRun) (int64, error) {
	var id int64
	err := h.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO scan_runs (
				started_at, duration_ms, mode, commit_hash,
				files_total, files_scanned, files_added, files_modified, files_removed, files_unchanged,
				components, connections, records_written, warning_count
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.StartedAt.UTC().Format(time.RFC3339Nano),
			run.Duration.Milliseconds(),
			string(run.Mode),
			nullString(run.Commit),
			run.FilesTotal, run.FilesScanned, run.FilesAdded, run.FilesModified, run.FilesRemoved, run.FilesUnchanged,
			run.Components, run.Connections, run.RecordsWritten, len(run.Warnings),
		)
		if err != nil {
			return fmt.Errorf("failed to insert scan run: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read scan run id: %w", err)
		}

		if len(run.Warnings) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_warnings (run_id, type, message, file) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare warning insert: %w", err)
		}
		defer stmt.Close()
		for _, w := range run.Warnings {
			if _, err := stmt.ExecContext(ctx, id, w.Type, w.Message, nullString(w.File)); err != nil {
				return fmt.Errorf("failed to insert run warning: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	run.ID = id
	run.WarningCount = len(run.Warnings)
	return id, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
// Warnings are not loaded; use Run for a single run's detail.
func (h *History) ListRuns(ctx context.Context, limit int) ([]ScanRun, error) {
	query := `
		SELECT id, started_at, duration_ms, mode, commit_hash,
			files_total, files_scanned, files_added, files_modified, files_removed, files_unchanged,
			components, connections, records_written, warning_count
		FROM scan_runs
		ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan runs: %w", err)
	}
	defer rows.Close()

	var runs []ScanRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Run loads one run with its warnings. A missing run returns nil, nil.
func (h *History) Run(ctx context.Context, id int64) (*ScanRun, error) {
	row := h.db.QueryRow(ctx, `
		SELECT id, started_at, duration_ms, mode, commit_hash,
			files_total, files_scanned, files_added, files_modified, files_removed, files_unchanged,
			components, connections, records_written, warning_count
		FROM scan_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := h.db.Query(ctx, `SELECT type, message, file FROM run_warnings WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run warnings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var w RunWarning
		var file sql.NullString
		if err := rows.Scan(&w.Type, &w.Message, &file); err != nil {
			return nil, fmt.Errorf("failed to scan run warning: %w", err)
		}
		w.File = file.String
		run.Warnings = append(run.Warnings, w)
	}
	return run, rows.Err()
}

// Prune keeps the newest keep runs and deletes the rest
func (h *History) Prune(ctx context.Context, keep int) (int64, error) {
	var n int64
	err := h.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM scan_runs WHERE id NOT IN (
				SELECT id FROM scan_runs ORDER BY id DESC LIMIT ?
			)`, keep)
		if err != nil {
			return fmt.Errorf("failed to prune scan runs: %w", err)
		}
		if n, err = res.RowsAffected(); err != nil {
			return err
		}
		// foreign_keys is per connection, so cascade may not have fired
		_, err = tx.ExecContext(ctx, `DELETE FROM run_warnings WHERE run_id NOT IN (SELECT id FROM scan_runs)`)
		return err
	})
	return n, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*ScanRun, error) {
	var (
		run       ScanRun
		startedAt string
		duration  int64
		mode      string
		commit    sql.NullString
	)
	err := row.Scan(&run.ID, &startedAt, &duration, &mode, &commit,
		&run.FilesTotal, &run.FilesScanned, &run.FilesAdded, &run.FilesModified, &run.FilesRemoved, &run.FilesUnchanged,
		&run.Components, &run.Connections, &run.RecordsWritten, &run.WarningCount)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	run.Duration = time.Duration(duration) * time.Millisecond
	run.Mode = ScanMode(mode)
	run.Commit = commit.String
	return &run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
