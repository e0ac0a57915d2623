package watermark

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Layout is the canonical format of persisted watermarks and the default
// publish date format of RSS 2.0 items.
const Layout = time.RFC1123Z

// Sentinel is the watermark assigned to feeds that have never been processed.
const Sentinel = "Thu, 01 Jan 1970 00:00:00 +1000"

var ErrInvalidTimestamp = errors.New("invalid timestamp")

var sentinelTime = mustParse(Sentinel)

// ParseTimestamp parses raw in the given layout. An empty layout means Layout.
// Fractional seconds are dropped so the result survives a round trip through
// Format unchanged.
func ParseTimestamp(layout, raw string) (time.Time, error) {
	if layout == "" {
		layout = Layout
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTimestamp)
	}

	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidTimestamp, value, err)
	}

	return t.Truncate(time.Second), nil
}

// Format renders t in the canonical Layout, keeping its zone offset.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Tracker holds the watermark of a single feed for the duration of one run.
// previous is a read-only snapshot; next only ever moves forward.
type Tracker struct {
	feedName       string
	previous       time.Time
	next           time.Time
	firstEncounter bool
}

// NewTracker builds a tracker from the stored watermark of a feed. A missing or
// unparsable value falls back to the Sentinel.
func NewTracker(feedName, stored string, found bool) *Tracker {
	if !found {
		slog.Debug("No stored watermark, using sentinel", "feed", feedName, "sentinel", Sentinel)
		return newSentinelTracker(feedName)
	}

	previous, err := ParseTimestamp(Layout, stored)
	if err != nil {
		slog.Warn("Stored watermark unreadable, using sentinel", "feed", feedName, "stored", stored, "error", err)
		return newSentinelTracker(feedName)
	}

	return &Tracker{
		feedName: feedName,
		previous: previous,
		next:     previous,
	}
}

func newSentinelTracker(feedName string) *Tracker {
	return &Tracker{
		feedName:       feedName,
		previous:       sentinelTime,
		next:           sentinelTime,
		firstEncounter: true,
	}
}

// IsNew reports whether publishedAt is strictly after the previous watermark.
// An item published exactly at the watermark was handled by an earlier run.
func (t *Tracker) IsNew(publishedAt time.Time) bool {
	return publishedAt.After(t.previous)
}

// Observe raises the next watermark to publishedAt if it is later.
func (t *Tracker) Observe(publishedAt time.Time) {
	if publishedAt.After(t.next) {
		t.next = publishedAt
	}
}

func (t *Tracker) FeedName() string {
	return t.feedName
}

func (t *Tracker) Previous() time.Time {
	return t.previous
}

func (t *Tracker) Next() time.Time {
	return t.next
}

func (t *Tracker) PreviousString() string {
	return Format(t.previous)
}

func (t *Tracker) NextString() string {
	return Format(t.next)
}

func (t *Tracker) FirstEncounter() bool {
	return t.firstEncounter
}

func mustParse(value string) time.Time {
	t, err := time.Parse(Layout, value)
	if err != nil {
		panic(fmt.Sprintf("watermark: invalid constant %q: %v", value, err))
	}
	return t
}
