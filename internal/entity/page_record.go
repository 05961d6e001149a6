package entity

import "time"

// PageRecord mirrors the `crawled_pages` PostgreSQL table schema.
type PageRecord struct {
	ID         int64
	CrawlID    string
	URL        string
	FileName   string
	SizeBytes  int
	StatusCode int
	FetchedAt  time.Time
}
