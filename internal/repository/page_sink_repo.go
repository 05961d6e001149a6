package repository

import "context"

// PageSink defines where fetched page bodies are persisted.
type PageSink interface {
	// Ready verifies the sink can accept writes. Failure is fatal to a crawl.
	Ready(ctx context.Context) error
	// Save durably stores body for url and returns the name it was stored under.
	Save(ctx context.Context, url string, body []byte) (string, error)
}
