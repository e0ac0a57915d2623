package triage

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/lysyi3m/rss-alert/app/feed"
	"github.com/lysyi3m/rss-alert/app/watermark"
)

// RunResult aggregates one run over all configured feeds. Watermarks holds
// every stored entry plus this run's updates and is what gets persisted.
type RunResult struct {
	StartedAt  time.Time
	FinishedAt time.Time
	FeedNames  []string
	Previous   map[string]string
	Watermarks map[string]string
	Events     []MatchEvent
	Stats      map[string]FeedStats
}

type Coordinator struct {
	fetcher Fetcher
	engine  *Engine
}

func NewCoordinator(fetcher Fetcher, engine *Engine) *Coordinator {
	return &Coordinator{
		fetcher: fetcher,
		engine:  engine,
	}
}

// RunAll triages every enabled feed one after another. A feed whose fetch
// fails keeps its stored watermark; the remaining feeds still run. Entries of
// feeds that are no longer configured are carried over untouched.
func (c *Coordinator) RunAll(ctx context.Context, configs []*feed.Config, stored map[string]string) *RunResult {
	result := &RunResult{
		StartedAt:  time.Now().UTC(),
		Previous:   make(map[string]string, len(configs)),
		Watermarks: make(map[string]string, len(stored)+len(configs)),
		Stats:      make(map[string]FeedStats, len(configs)),
	}
	maps.Copy(result.Watermarks, stored)

	for _, feedConfig := range configs {
		if !feedConfig.Settings.Enabled {
			slog.Debug("Feed disabled, skipping", "feed", feedConfig.Name)
			continue
		}

		storedValue, found := stored[feedConfig.Name]
		tracker := watermark.NewTracker(feedConfig.Name, storedValue, found)

		result.FeedNames = append(result.FeedNames, feedConfig.Name)
		result.Previous[feedConfig.Name] = tracker.PreviousString()

		if err := ctx.Err(); err != nil {
			result.Stats[feedConfig.Name] = FeedStats{Failed: true, Error: err.Error()}
			slog.Warn("Run cancelled, feed not processed", "feed", feedConfig.Name, "error", err)
			continue
		}

		items, err := c.fetcher.Fetch(ctx, feedConfig)
		if err != nil {
			result.Stats[feedConfig.Name] = FeedStats{Failed: true, Error: err.Error()}
			slog.Error("Feed fetch failed, watermark unchanged", "feed", feedConfig.Name, "url", feedConfig.URL, "error", err)
			continue
		}

		feedResult := c.engine.Run(feedConfig, items, tracker)

		result.Watermarks[feedConfig.Name] = feedResult.NextWatermark
		result.Events = append(result.Events, feedResult.Events...)
		result.Stats[feedConfig.Name] = feedResult.Stats

		slog.Info("Feed triaged",
			"feed", feedConfig.Name,
			"previous_watermark", feedResult.PreviousWatermark,
			"new_watermark", feedResult.NextWatermark,
			"processed", feedResult.Stats.ItemsProcessed,
			"matched", feedResult.Stats.ItemsMatched,
			"parse_failures", feedResult.Stats.ParseFailures)
	}

	result.FinishedAt = time.Now().UTC()

	return result
}

// Totals sums the per-feed counters.
func (r *RunResult) Totals() (processed, matched, failures int) {
	for _, stats := range r.Stats {
		processed += stats.ItemsProcessed
		matched += stats.ItemsMatched
		if stats.Failed {
			failures++
		}
	}
	return processed, matched, failures
}

// Summary lists previous and new watermarks with per-feed counters.
func (r *RunResult) Summary() string {
	var b strings.Builder

	processed, matched, failures := r.Totals()
	fmt.Fprintf(&b, "Summary: feeds=%d processed=%d matched=%d events=%d failures=%d\n",
		len(r.FeedNames), processed, matched, len(r.Events), failures)

	for _, name := range r.FeedNames {
		stats := r.Stats[name]
		fmt.Fprintf(&b, "[%s] previous=%q new=%q processed=%d matched=%d",
			name, r.Previous[name], r.Watermarks[name], stats.ItemsProcessed, stats.ItemsMatched)
		if stats.ParseFailures > 0 {
			fmt.Fprintf(&b, " parse_failures=%d", stats.ParseFailures)
		}
		if stats.Failed {
			fmt.Fprintf(&b, " failed=%q", stats.Error)
		}
		b.WriteString("\n")
	}

	return b.String()
}
