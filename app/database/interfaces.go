package database

import (
	"context"
)

type WatermarkRepository interface {
	// Load returns the stored watermarks; found is false when nothing has been stored yet.
	Load(ctx context.Context) (watermarks map[string]string, found bool, err error)
	Save(ctx context.Context, watermarks map[string]string) error
	List(ctx context.Context) ([]Watermark, error)
}

type RunRepository interface {
	InsertRun(ctx context.Context, run Run) (int64, error)
	GetRecentRuns(ctx context.Context, limit int) ([]Run, error)
}

var (
	_ WatermarkRepository = (*SQLiteWatermarkRepository)(nil)
	_ RunRepository       = (*SQLiteRunRepository)(nil)
)
