package database

import (
	"time"
)

type Watermark struct {
	FeedName      string
	LastPublished string // Canonical RFC 1123 timestamp of the last processed item
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Run struct {
	ID             int64
	StartedAt      time.Time
	FinishedAt     time.Time
	Feeds          int
	ItemsProcessed int
	ItemsMatched   int
	Events         int
	Failures       int
	Summary        string
}
