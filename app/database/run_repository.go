package database

import (
	"context"
	"fmt"
)

// SQLiteRunRepository keeps a history of completed runs
type SQLiteRunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *SQLiteRunRepository {
	return &SQLiteRunRepository{db: db}
}

func (r *SQLiteRunRepository) InsertRun(ctx context.Context, run Run) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (
			started_at, finished_at, feeds, items_processed,
			items_matched, events, failures, summary
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Feeds, run.ItemsProcessed,
		run.ItemsMatched, run.Events, run.Failures, run.Summary)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	return id, nil
}

// GetRecentRuns returns up to limit runs, newest first
func (r *SQLiteRunRepository) GetRecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, feeds, items_processed,
		       items_matched, events, failures, summary
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		err := rows.Scan(
			&run.ID, &run.StartedAt, &run.FinishedAt, &run.Feeds, &run.ItemsProcessed,
			&run.ItemsMatched, &run.Events, &run.Failures, &run.Summary,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}
