package api

import (
	"context"

	"github.com/lysyi3m/rss-alert/app/database"
	"github.com/lysyi3m/rss-alert/app/feed"
	"github.com/lysyi3m/rss-alert/app/tasks"
)

const recentRunsLimit = 20

// ConfigProvider is the read side of feed.ConfigCache used by the handlers.
type ConfigProvider interface {
	GetConfig(feedName string) (*feed.Config, error)
	GetSortedConfigs() []*feed.Config
	GetConfigCount() int
}

var _ ConfigProvider = (*feed.ConfigCache)(nil)

// WatermarkLister is satisfied by database.WatermarkRepository.
type WatermarkLister interface {
	List(ctx context.Context) ([]database.Watermark, error)
}

// WatermarkLoader is satisfied by database.WatermarkRepository.
type WatermarkLoader interface {
	WatermarkLister
	Load(ctx context.Context) (map[string]string, bool, error)
}

// RunLister is satisfied by database.RunRepository.
type RunLister interface {
	GetRecentRuns(ctx context.Context, limit int) ([]database.Run, error)
}

type Handler struct {
	configs       ConfigProvider
	watermarkRepo WatermarkLoader
	runRepo       RunLister
	scheduler     tasks.TaskSchedulerInterface
}
