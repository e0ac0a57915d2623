package triage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lysyi3m/rss-alert/app/feed"
)

// Fetcher returns the current item batch of a feed.
type Fetcher interface {
	Fetch(ctx context.Context, feedConfig *feed.Config) ([]feed.Item, error)
}

var _ Fetcher = (*feed.Fetcher)(nil)

// MatchEvent records that one new item matched at least one keyword.
type MatchEvent struct {
	FeedName    string
	Title       string
	Link        string
	Keywords    []string
	PublishedAt time.Time
}

// Message renders the event as a notification line:
// [keyword1,keyword2@FEED] title link
func (e MatchEvent) Message() string {
	title := strings.ReplaceAll(e.Title, "'", "")
	return fmt.Sprintf("[%s@%s] %s %s", strings.Join(e.Keywords, ","), e.FeedName, title, e.Link)
}

type FeedStats struct {
	ItemsProcessed int
	ItemsMatched   int // keyword hits, an item matching two keywords counts twice
	ParseFailures  int
	Failed         bool
	Error          string
}

// FeedResult is the outcome of triaging one feed batch.
type FeedResult struct {
	FeedName          string
	PreviousWatermark string
	NextWatermark     string
	Events            []MatchEvent
	Stats             FeedStats
}
