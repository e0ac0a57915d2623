package database

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// SQLiteWatermarkRepository persists the per-feed watermark mapping
type SQLiteWatermarkRepository struct {
	db *DB
}

func NewWatermarkRepository(db *DB) *SQLiteWatermarkRepository {
	return &SQLiteWatermarkRepository{db: db}
}

func (r *SQLiteWatermarkRepository) Load(ctx context.Context) (map[string]string, bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT feed_name, last_published FROM watermarks`)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load watermarks: %w", err)
	}
	defer rows.Close()

	watermarks := make(map[string]string)
	for rows.Next() {
		var feedName, lastPublished string
		if err := rows.Scan(&feedName, &lastPublished); err != nil {
			return nil, false, fmt.Errorf("failed to scan watermark row: %w", err)
		}
		watermarks[feedName] = lastPublished
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("error iterating watermark rows: %w", err)
	}

	return watermarks, len(watermarks) > 0, nil
}

// Save upserts every entry in a single transaction. Rows missing from
// watermarks are left in place.
func (r *SQLiteWatermarkRepository) Save(ctx context.Context, watermarks map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO watermarks (feed_name, last_published, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (feed_name) DO UPDATE SET
			last_published = excluded.last_published,
			updated_at = excluded.updated_at
		WHERE watermarks.last_published <> excluded.last_published
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare watermark upsert: %w", err)
	}
	defer stmt.Close()

	feedNames := make([]string, 0, len(watermarks))
	for feedName := range watermarks {
		feedNames = append(feedNames, feedName)
	}
	sort.Strings(feedNames)

	now := time.Now().UTC()
	for _, feedName := range feedNames {
		if _, err := stmt.ExecContext(ctx, feedName, watermarks[feedName], now, now); err != nil {
			return fmt.Errorf("failed to save watermark for %s: %w", feedName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit watermarks: %w", err)
	}

	return nil
}

func (r *SQLiteWatermarkRepository) List(ctx context.Context) ([]Watermark, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT feed_name, last_published, created_at, updated_at
		FROM watermarks
		ORDER BY feed_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list watermarks: %w", err)
	}
	defer rows.Close()

	var watermarks []Watermark
	for rows.Next() {
		var w Watermark
		if err := rows.Scan(&w.FeedName, &w.LastPublished, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watermark row: %w", err)
		}
		watermarks = append(watermarks, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watermark rows: %w", err)
	}

	return watermarks, nil
}
