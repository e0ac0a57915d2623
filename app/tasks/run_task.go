package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-alert/app/database"
	"github.com/lysyi3m/rss-alert/app/triage"
)

// RunTask performs one full triage run: load watermarks, triage every feed,
// notify, persist watermarks, record the run.
type RunTask struct {
	Task
	configs       ConfigSource
	coordinator   *triage.Coordinator
	watermarkRepo database.WatermarkRepository
	runRepo       database.RunRepository
	notifier      Notifier
	result        *triage.RunResult
}

func NewRunTask(configs ConfigSource, coordinator *triage.Coordinator, watermarkRepo database.WatermarkRepository,
	runRepo database.RunRepository, notifier Notifier) *RunTask {
	return &RunTask{
		Task:          NewTask(TaskTypeRunTriage),
		configs:       configs,
		coordinator:   coordinator,
		watermarkRepo: watermarkRepo,
		runRepo:       runRepo,
		notifier:      notifier,
	}
}

func (t *RunTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	stored, found, err := t.watermarkRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load watermarks: %w", err)
	}
	if !found {
		slog.Info("No stored watermarks, treating all feeds as never processed")
	}

	result := t.coordinator.RunAll(ctx, t.configs.GetSortedConfigs(), stored)

	sentCount := 0
	errorCount := 0
	for _, event := range result.Events {
		if err := t.notifier.Send(ctx, event.Message()); err != nil {
			slog.Error("Failed to send notification", "feed", event.FeedName, "title", event.Title, "error", err)
			errorCount++
			continue
		}
		sentCount++
	}

	if err := t.watermarkRepo.Save(ctx, result.Watermarks); err != nil {
		return fmt.Errorf("failed to save watermarks: %w", err)
	}

	t.result = result

	processed, matched, failures := result.Totals()
	summary := result.Summary()

	_, err = t.runRepo.InsertRun(ctx, database.Run{
		StartedAt:      result.StartedAt,
		FinishedAt:     result.FinishedAt,
		Feeds:          len(result.FeedNames),
		ItemsProcessed: processed,
		ItemsMatched:   matched,
		Events:         len(result.Events),
		Failures:       failures,
		Summary:        summary,
	})
	if err != nil {
		slog.Warn("Failed to record run history", "error", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"feeds", len(result.FeedNames),
		"processed", processed,
		"matched", matched,
		"failures", failures,
		"sent", sentCount,
		"errors", errorCount)

	return nil
}

// Result returns the outcome of the last successful Execute, or nil.
func (t *RunTask) Result() *triage.RunResult {
	return t.result
}
