package triage

import (
	"log/slog"

	"github.com/lysyi3m/rss-alert/app/feed"
	"github.com/lysyi3m/rss-alert/app/watermark"
)

type Engine struct {
	matcher *feed.Matcher
}

func NewEngine(matcher *feed.Matcher) *Engine {
	return &Engine{matcher: matcher}
}

// Run classifies a feed's items against its watermark and keywords. Items may
// arrive in any order; the tracker keeps the maximum publish time it observes.
func (e *Engine) Run(feedConfig *feed.Config, items []feed.Item, tracker *watermark.Tracker) FeedResult {
	result := FeedResult{
		FeedName:          feedConfig.Name,
		PreviousWatermark: tracker.PreviousString(),
	}

	for _, item := range items {
		result.Stats.ItemsProcessed++

		publishedAt, err := watermark.ParseTimestamp(feedConfig.Settings.DateFormat, item.Published)
		if err != nil {
			result.Stats.ParseFailures++
			slog.Warn("Skipping item with unparsable publish date",
				"feed", feedConfig.Name,
				"title", item.Title,
				"published", item.Published,
				"error", err)
			continue
		}

		if !tracker.IsNew(publishedAt) {
			slog.Debug("Skipping old item",
				"feed", feedConfig.Name,
				"watermark", tracker.PreviousString(),
				"published", item.Published,
				"title", item.Title)
			continue
		}

		tracker.Observe(publishedAt)

		matched := e.matcher.Run(e.matcher.ComposeText(item), feedConfig.Keywords)
		if len(matched) == 0 {
			slog.Debug("New item, no matching keywords",
				"feed", feedConfig.Name,
				"published", item.Published,
				"title", item.Title)
			continue
		}

		result.Stats.ItemsMatched += len(matched)
		result.Events = append(result.Events, MatchEvent{
			FeedName:    feedConfig.Name,
			Title:       item.Title,
			Link:        item.Link,
			Keywords:    matched,
			PublishedAt: publishedAt,
		})

		slog.Info("New item matched keywords",
			"feed", feedConfig.Name,
			"published", item.Published,
			"title", item.Title,
			"keywords", matched)
	}

	result.NextWatermark = tracker.NextString()

	return result
}
