// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/probeacc/internal/ports/secondary"
)

// RunRepository implements secondary.RunRepository with SQLite.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `r.id, r.tests, r.status, r.force_dock, r.created_at, r.completed_at,
	(SELECT COUNT(*) FROM samples s WHERE s.run_id = r.id)`

// Create persists a new run.
func (r *RunRepository) Create(ctx context.Context, run *secondary.RunRecord) error {
	status := run.Status
	if status == "" {
		status = "running"
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO runs (id, tests, status, force_dock) VALUES (?, ?, ?, ?)",
		run.ID, run.Tests, status, boolToInt(run.ForceDock),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*secondary.RunRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM runs r WHERE r.id = ?",
		id,
	)

	record, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return record, nil
}

// List retrieves runs matching the given filters, newest first.
func (r *RunRepository) List(ctx context.Context, filters secondary.RunFilters) ([]*secondary.RunRecord, error) {
	query := "SELECT " + runColumns + " FROM runs r"
	var args []any

	if filters.Status != "" {
		query += " WHERE r.status = ?"
		args = append(args, filters.Status)
	}

	query += " ORDER BY r.created_at DESC, r.id DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*secondary.RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, record)
	}

	return runs, rows.Err()
}

// UpdateStatus updates the status and optionally completed_at timestamp.
func (r *RunRepository) UpdateStatus(ctx context.Context, id, status string, setCompleted bool) error {
	var query string
	var args []any

	if setCompleted {
		query = "UPDATE runs SET status = ?, completed_at = ? WHERE id = ?"
		args = []any{status, time.Now(), id}
	} else {
		query = "UPDATE runs SET status = ? WHERE id = ?"
		args = []any{status, id}
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("run %s not found", id)
	}

	return nil
}

// AppendSamples stores samples for a run in one transaction.
func (r *RunRepository) AppendSamples(ctx context.Context, runID string, samples []*secondary.SampleRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO samples (run_id, test, measurement, sample_index, x, y, z) VALUES (?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.ExecContext(ctx, runID, s.Test, s.Measurement, s.Index, s.X, s.Y, s.Z); err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit samples: %w", err)
	}
	return nil
}

// GetSamples returns the samples of a run in insertion order.
func (r *RunRepository) GetSamples(ctx context.Context, runID string) ([]*secondary.SampleRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT test, measurement, sample_index, x, y, z FROM samples WHERE run_id = ? ORDER BY id ASC",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get samples: %w", err)
	}
	defer rows.Close()

	var samples []*secondary.SampleRecord
	for rows.Next() {
		s := &secondary.SampleRecord{}
		if err := rows.Scan(&s.Test, &s.Measurement, &s.Index, &s.X, &s.Y, &s.Z); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}

	return samples, rows.Err()
}

// GetNextID returns the next available run ID.
func (r *RunRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM runs",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next run ID: %w", err)
	}

	return fmt.Sprintf("RUN-%03d", maxID+1), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*secondary.RunRecord, error) {
	var (
		forceDock   int
		createdAt   time.Time
		completedAt sql.NullTime
	)

	record := &secondary.RunRecord{}
	if err := row.Scan(&record.ID, &record.Tests, &record.Status, &forceDock, &createdAt, &completedAt, &record.SampleCount); err != nil {
		return nil, err
	}

	record.ForceDock = forceDock != 0
	record.CreatedAt = createdAt.Format(time.RFC3339)
	if completedAt.Valid {
		record.CompletedAt = completedAt.Time.Format(time.RFC3339)
	}

	return record, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure RunRepository implements the interface.
var _ secondary.RunRepository = (*RunRepository)(nil)
