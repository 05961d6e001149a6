package request

// SubmitCrawlRequest starts a crawl. Zero Workers or MaxPages fall back to the
// server's configured defaults.
type SubmitCrawlRequest struct {
	URL      string `json:"url"`
	Workers  int    `json:"workers"`
	MaxPages int    `json:"max_pages"`
}
