package entity

import "time"

// Crawl lifecycle states reported through the API.
const (
	CrawlStateRunning    = "running"
	CrawlStateTerminated = "terminated"
	CrawlStateFailed     = "failed"
)

// CrawlStatus describes one crawl submitted to the crawl manager.
type CrawlStatus struct {
	ID         string
	Seed       string
	State      string // "running", "terminated", "failed"
	StartedAt  time.Time
	FinishedAt *time.Time
	Stats      *CrawlStats
	Error      string
}
