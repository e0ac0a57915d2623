package triage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/rss-alert/app/feed"
	"github.com/lysyi3m/rss-alert/app/watermark"
)

// MockFetcher serves canned batches per feed name
type MockFetcher struct {
	items map[string][]feed.Item
	errs  map[string]error
	calls []string
}

func (m *MockFetcher) Fetch(ctx context.Context, feedConfig *feed.Config) ([]feed.Item, error) {
	m.calls = append(m.calls, feedConfig.Name)
	if err := m.errs[feedConfig.Name]; err != nil {
		return nil, err
	}
	return m.items[feedConfig.Name], nil
}

func testConfig(name string, keywords ...string) *feed.Config {
	return &feed.Config{
		Name:     name,
		URL:      "https://example.com/" + name,
		Keywords: keywords,
		Settings: feed.ConfigSettings{Enabled: true, Timeout: 30, DateFormat: watermark.Layout},
	}
}

func TestCoordinator_RunAll(t *testing.T) {
	fetcher := &MockFetcher{
		items: map[string][]feed.Item{
			"NEWS": {lockdownItem()},
			"SMH": {
				{Title: "Space launch", Link: "https://smh/space", Published: "Tue, 06 Jun 2023 09:00:00 +1000"},
				{Title: "Old covid news", Link: "https://smh/old", Published: "Wed, 31 May 2023 09:00:00 +1000"},
			},
		},
	}
	coordinator := NewCoordinator(fetcher, NewEngine(feed.NewMatcher()))

	stored := map[string]string{
		"NEWS": "Thu, 01 Jan 1970 00:00:00 +1000",
		"SMH":  "Thu, 01 Jun 2023 00:00:00 +1000",
		"GONE": "Fri, 02 Jun 2023 00:00:00 +1000",
	}
	configs := []*feed.Config{
		testConfig("NEWS", "Covid", "Lockdown"),
		testConfig("SMH", "Covid", "Lockdown", "Space"),
	}

	result := coordinator.RunAll(context.Background(), configs, stored)

	if len(result.Events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(result.Events))
	}
	if result.Events[0].FeedName != "NEWS" || result.Events[1].FeedName != "SMH" {
		t.Errorf("Expected events in feed order, got %s then %s", result.Events[0].FeedName, result.Events[1].FeedName)
	}

	if result.Watermarks["NEWS"] != "Mon, 05 Jun 2023 10:00:00 +1000" {
		t.Errorf("Unexpected NEWS watermark %q", result.Watermarks["NEWS"])
	}
	if result.Watermarks["SMH"] != "Tue, 06 Jun 2023 09:00:00 +1000" {
		t.Errorf("Unexpected SMH watermark %q", result.Watermarks["SMH"])
	}
	if result.Watermarks["GONE"] != stored["GONE"] {
		t.Errorf("Expected unconfigured feed watermark to be kept, got %q", result.Watermarks["GONE"])
	}
	if result.Previous["SMH"] != stored["SMH"] {
		t.Errorf("Expected previous SMH watermark %q, got %q", stored["SMH"], result.Previous["SMH"])
	}

	if stats := result.Stats["SMH"]; stats.ItemsProcessed != 2 || stats.ItemsMatched != 1 {
		t.Errorf("Unexpected SMH stats: %+v", stats)
	}

	// The stored map must not be mutated
	if stored["NEWS"] != "Thu, 01 Jan 1970 00:00:00 +1000" {
		t.Errorf("Stored watermarks were modified: %v", stored)
	}
}

func TestCoordinator_FetchFailureIsolated(t *testing.T) {
	fetcher := &MockFetcher{
		items: map[string][]feed.Item{
			"NEWS": {lockdownItem()},
		},
		errs: map[string]error{
			"AWS": errors.New("connection refused"),
		},
	}
	coordinator := NewCoordinator(fetcher, NewEngine(feed.NewMatcher()))

	stored := map[string]string{
		"AWS": "Thu, 01 Jun 2023 00:00:00 +1000",
	}
	configs := []*feed.Config{
		testConfig("AWS", "Serverless"),
		testConfig("NEWS", "Lockdown"),
	}

	result := coordinator.RunAll(context.Background(), configs, stored)

	awsStats := result.Stats["AWS"]
	if !awsStats.Failed {
		t.Error("Expected AWS to be marked as failed")
	}
	if !strings.Contains(awsStats.Error, "connection refused") {
		t.Errorf("Expected failure reason to be recorded, got %q", awsStats.Error)
	}
	if result.Watermarks["AWS"] != stored["AWS"] {
		t.Errorf("Expected failed feed watermark unchanged, got %q", result.Watermarks["AWS"])
	}

	if len(result.Events) != 1 || result.Events[0].FeedName != "NEWS" {
		t.Errorf("Expected NEWS to be processed despite AWS failure, got %+v", result.Events)
	}

	_, _, failures := result.Totals()
	if failures != 1 {
		t.Errorf("Expected 1 failure, got %d", failures)
	}
}

func TestCoordinator_FirstEncounterFailureLeavesNoEntry(t *testing.T) {
	fetcher := &MockFetcher{errs: map[string]error{"NEW": errors.New("timeout")}}
	coordinator := NewCoordinator(fetcher, NewEngine(feed.NewMatcher()))

	result := coordinator.RunAll(context.Background(), []*feed.Config{testConfig("NEW", "Covid")}, nil)

	if _, ok := result.Watermarks["NEW"]; ok {
		t.Errorf("Expected no watermark for a failed first fetch, got %q", result.Watermarks["NEW"])
	}
}

func TestCoordinator_FirstEncounterEmptyBatchWritesSentinel(t *testing.T) {
	fetcher := &MockFetcher{}
	coordinator := NewCoordinator(fetcher, NewEngine(feed.NewMatcher()))

	result := coordinator.RunAll(context.Background(), []*feed.Config{testConfig("NEW", "Covid")}, nil)

	if result.Watermarks["NEW"] != watermark.Sentinel {
		t.Errorf("Expected sentinel watermark, got %q", result.Watermarks["NEW"])
	}
}

func TestCoordinator_SkipsDisabledFeeds(t *testing.T) {
	fetcher := &MockFetcher{}
	coordinator := NewCoordinator(fetcher, NewEngine(feed.NewMatcher()))

	disabled := testConfig("OFF", "Covid")
	disabled.Settings.Enabled = false
	stored := map[string]string{"OFF": "Thu, 01 Jun 2023 00:00:00 +1000"}

	result := coordinator.RunAll(context.Background(), []*feed.Config{disabled}, stored)

	if len(fetcher.calls) != 0 {
		t.Errorf("Expected no fetch for disabled feed, got %v", fetcher.calls)
	}
	if result.Watermarks["OFF"] != stored["OFF"] {
		t.Errorf("Expected disabled feed watermark carried over, got %q", result.Watermarks["OFF"])
	}
	if len(result.FeedNames) != 0 {
		t.Errorf("Expected disabled feed to be left out of the run, got %v", result.FeedNames)
	}
}

func TestCoordinator_CancelledContext(t *testing.T) {
	fetcher := &MockFetcher{items: map[string][]feed.Item{"NEWS": {lockdownItem()}}}
	coordinator := NewCoordinator(fetcher, NewEngine(feed.NewMatcher()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stored := map[string]string{"NEWS": "Thu, 01 Jun 2023 00:00:00 +1000"}
	result := coordinator.RunAll(ctx, []*feed.Config{testConfig("NEWS", "Lockdown")}, stored)

	if len(fetcher.calls) != 0 {
		t.Errorf("Expected no fetch after cancellation, got %v", fetcher.calls)
	}
	if !result.Stats["NEWS"].Failed {
		t.Error("Expected feed to be marked failed after cancellation")
	}
	if result.Watermarks["NEWS"] != stored["NEWS"] {
		t.Errorf("Expected watermark unchanged, got %q", result.Watermarks["NEWS"])
	}
}

func TestCoordinator_IdempotentAcrossRuns(t *testing.T) {
	fetcher := &MockFetcher{
		items: map[string][]feed.Item{
			"NEWS": {
				{Title: "Covid B", Published: "Mon, 05 Jun 2023 08:00:00 +1000"},
				{Title: "Lockdown A", Published: "Sun, 04 Jun 2023 08:00:00 +1000"},
			},
		},
	}
	coordinator := NewCoordinator(fetcher, NewEngine(feed.NewMatcher()))
	configs := []*feed.Config{testConfig("NEWS", "Covid", "Lockdown")}

	first := coordinator.RunAll(context.Background(), configs, nil)
	if len(first.Events) != 2 {
		t.Fatalf("Expected 2 events on first run, got %d", len(first.Events))
	}

	second := coordinator.RunAll(context.Background(), configs, first.Watermarks)
	if len(second.Events) != 0 {
		t.Errorf("Expected 0 events on second run, got %d", len(second.Events))
	}
	if second.Watermarks["NEWS"] != first.Watermarks["NEWS"] {
		t.Errorf("Expected watermark unchanged, got %q", second.Watermarks["NEWS"])
	}
}

func TestCoordinator_SubSecondTimestampsIdempotent(t *testing.T) {
	fetcher := &MockFetcher{
		items: map[string][]feed.Item{
			"NEWS": {
				{Title: "Lockdown eases", Published: "Mon, 05 Jun 2023 10:00:00.500 +1000"},
			},
			"AWS": {
				{Title: "Lambda update", Published: "2023-06-05T10:00:00.250+10:00"},
			},
		},
	}
	coordinator := NewCoordinator(fetcher, NewEngine(feed.NewMatcher()))

	atom := testConfig("AWS", "Lambda")
	atom.Settings.DateFormat = time.RFC3339
	configs := []*feed.Config{atom, testConfig("NEWS", "Lockdown")}

	first := coordinator.RunAll(context.Background(), configs, nil)
	if len(first.Events) != 2 {
		t.Fatalf("Expected 2 events on first run, got %d", len(first.Events))
	}
	if first.Watermarks["NEWS"] != "Mon, 05 Jun 2023 10:00:00 +1000" {
		t.Errorf("Unexpected NEWS watermark %q", first.Watermarks["NEWS"])
	}

	second := coordinator.RunAll(context.Background(), configs, first.Watermarks)
	if len(second.Events) != 0 {
		t.Errorf("Expected 0 events when re-running with persisted watermarks, got %d", len(second.Events))
	}
	for feedName, value := range first.Watermarks {
		if second.Watermarks[feedName] != value {
			t.Errorf("Expected %s watermark %q unchanged, got %q", feedName, value, second.Watermarks[feedName])
		}
	}
}

func TestRunResult_Summary(t *testing.T) {
	fetcher := &MockFetcher{
		items: map[string][]feed.Item{"NEWS": {lockdownItem()}},
		errs:  map[string]error{"SMH": errors.New("boom")},
	}
	coordinator := NewCoordinator(fetcher, NewEngine(feed.NewMatcher()))

	result := coordinator.RunAll(context.Background(),
		[]*feed.Config{testConfig("NEWS", "Lockdown"), testConfig("SMH", "Space")}, nil)

	summary := result.Summary()

	for _, want := range []string{
		"feeds=2",
		"[NEWS] previous=\"Thu, 01 Jan 1970 00:00:00 +1000\" new=\"Mon, 05 Jun 2023 10:00:00 +1000\" processed=1 matched=1",
		"[SMH]",
		"failed=\"boom\"",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, summary)
		}
	}
}
