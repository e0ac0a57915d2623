package watermark

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		layout  string
		raw     string
		wantErr bool
	}{
		{name: "rfc1123z", layout: Layout, raw: "Mon, 05 Jun 2023 10:00:00 +1000"},
		{name: "default layout", layout: "", raw: "Mon, 05 Jun 2023 10:00:00 +1000"},
		{name: "surrounding whitespace", layout: Layout, raw: "  Mon, 05 Jun 2023 10:00:00 +1000\n"},
		{name: "rfc3339 layout", layout: time.RFC3339, raw: "2023-06-05T10:00:00+10:00"},
		{name: "fractional seconds dropped", layout: Layout, raw: "Mon, 05 Jun 2023 10:00:00.500 +1000"},
		{name: "rfc3339 fractional seconds dropped", layout: time.RFC3339, raw: "2023-06-05T10:00:00.999+10:00"},
		{name: "empty", layout: Layout, raw: "", wantErr: true},
		{name: "garbage", layout: Layout, raw: "yesterday", wantErr: true},
		{name: "named zone", layout: Layout, raw: "Mon, 05 Jun 2023 10:00:00 GMT", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.layout, tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q, got %v", tt.raw, got)
				}
				if !errors.Is(err, ErrInvalidTimestamp) {
					t.Errorf("Expected ErrInvalidTimestamp, got %v", err)
				}
				if !got.IsZero() {
					t.Errorf("Expected zero time on failure, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			want := time.Date(2023, 6, 5, 0, 0, 0, 0, time.UTC)
			if !got.Equal(want) {
				t.Errorf("Expected %v, got %v", want, got)
			}
		})
	}
}

func TestParseTimestampRoundTrip(t *testing.T) {
	parsed, err := ParseTimestamp(Layout, "Mon, 05 Jun 2023 10:00:00.500 +1000")
	if err != nil {
		t.Fatal(err)
	}

	reparsed, err := ParseTimestamp(Layout, Format(parsed))
	if err != nil {
		t.Fatal(err)
	}
	if !reparsed.Equal(parsed) {
		t.Errorf("Expected %v to survive Format, got %v", parsed, reparsed)
	}

	tracker := NewTracker("NEWS", Format(parsed), true)
	if tracker.IsNew(parsed) {
		t.Error("Expected item at the persisted watermark to be old")
	}
}

func TestFormatKeepsOffset(t *testing.T) {
	raw := "Mon, 05 Jun 2023 10:00:00 +1000"
	parsed, err := ParseTimestamp(Layout, raw)
	if err != nil {
		t.Fatal(err)
	}
	if got := Format(parsed); got != raw {
		t.Errorf("Expected %q, got %q", raw, got)
	}
}

func TestNewTrackerFirstEncounter(t *testing.T) {
	tracker := NewTracker("NEWS", "", false)

	if !tracker.FirstEncounter() {
		t.Error("Expected first encounter for missing watermark")
	}
	if tracker.PreviousString() != Sentinel {
		t.Errorf("Expected previous %q, got %q", Sentinel, tracker.PreviousString())
	}
	if tracker.NextString() != Sentinel {
		t.Errorf("Expected next %q, got %q", Sentinel, tracker.NextString())
	}

	// Anything published after the sentinel is new, including 1970 dates.
	if !tracker.IsNew(time.Date(1970, 1, 1, 0, 0, 1, 0, time.UTC)) {
		t.Error("Expected item after sentinel to be new")
	}
}

func TestNewTrackerUnparsableFallsBackToSentinel(t *testing.T) {
	tracker := NewTracker("SMH", "not a date", true)

	if !tracker.FirstEncounter() {
		t.Error("Expected unparsable watermark to be treated as first encounter")
	}
	if tracker.PreviousString() != Sentinel {
		t.Errorf("Expected previous %q, got %q", Sentinel, tracker.PreviousString())
	}
}

func TestNewTrackerStoredValue(t *testing.T) {
	stored := "Mon, 05 Jun 2023 10:00:00 +1000"
	tracker := NewTracker("NEWS", stored, true)

	if tracker.FirstEncounter() {
		t.Error("Expected stored watermark not to be a first encounter")
	}
	if tracker.PreviousString() != stored {
		t.Errorf("Expected previous %q, got %q", stored, tracker.PreviousString())
	}
	if tracker.FeedName() != "NEWS" {
		t.Errorf("Expected feed name 'NEWS', got '%s'", tracker.FeedName())
	}
}

func TestTrackerIsNewStrict(t *testing.T) {
	stored := "Mon, 05 Jun 2023 10:00:00 +1000"
	tracker := NewTracker("NEWS", stored, true)
	watermark := tracker.Previous()

	if tracker.IsNew(watermark) {
		t.Error("Item published exactly at the watermark must not be new")
	}
	if tracker.IsNew(watermark.Add(-time.Second)) {
		t.Error("Item published before the watermark must not be new")
	}
	if !tracker.IsNew(watermark.Add(time.Second)) {
		t.Error("Item published after the watermark must be new")
	}

	// Same instant in another zone is still not new.
	if tracker.IsNew(watermark.UTC()) {
		t.Error("Equal instant in UTC must not be new")
	}
}

func TestTrackerObserveIsMonotonic(t *testing.T) {
	tracker := NewTracker("NEWS", "Mon, 05 Jun 2023 10:00:00 +1000", true)
	base := tracker.Previous()

	tracker.Observe(base.Add(3 * time.Hour))
	tracker.Observe(base.Add(1 * time.Hour))
	tracker.Observe(base.Add(2 * time.Hour))

	if !tracker.Next().Equal(base.Add(3 * time.Hour)) {
		t.Errorf("Expected next %v, got %v", base.Add(3*time.Hour), tracker.Next())
	}
	if !tracker.Previous().Equal(base) {
		t.Errorf("Previous must not change during a run, got %v", tracker.Previous())
	}

	tracker.Observe(base.Add(-24 * time.Hour))
	if tracker.Next().Before(tracker.Previous()) {
		t.Error("Next watermark must never fall below previous")
	}
}
