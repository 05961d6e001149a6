package entity

import "time"

// FailedURL mirrors the `failed_urls` PostgreSQL table schema.
type FailedURL struct {
	ID             int64
	CrawlID        string
	URL            string
	FailureReason  string
	HTTPStatusCode int
	AttemptedAt    time.Time
}
