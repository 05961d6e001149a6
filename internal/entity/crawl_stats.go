package entity

import "time"

// CrawlStats summarises a finished (or interrupted) crawl.
type CrawlStats struct {
	// Pages is the number of URLs popped from the frontier, i.e. consumed budget.
	Pages          int64            `json:"pages"`
	Fetched        int64            `json:"fetched"`
	Saved          int64            `json:"saved"`
	FetchErrors    int64            `json:"fetch_errors"`
	SaveErrors     int64            `json:"save_errors"`
	LinksEnqueued  int64            `json:"links_enqueued"`
	LinksDuplicate int64            `json:"links_duplicate"`
	LinksDropped   map[string]int64 `json:"links_dropped"`
	Duration       time.Duration    `json:"duration"`
}
