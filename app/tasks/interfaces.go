package tasks

import (
	"context"

	"github.com/lysyi3m/rss-alert/app/feed"
	"github.com/lysyi3m/rss-alert/app/triage"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application in watch mode and by the API to trigger runs.
// Example usage:
//
//	scheduler := NewScheduler(runTaskFactory, interval)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueRun()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueRun() error
	LastResult() *triage.RunResult
}

// Notifier delivers one pre-formatted message per match event.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// ConfigSource supplies the feed configurations for a run.
type ConfigSource interface {
	GetSortedConfigs() []*feed.Config
}
