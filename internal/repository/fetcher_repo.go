package repository

import (
	"context"

	"github.com/user/site-crawler/internal/entity"
)

// Fetcher defines the contract for retrieving a single page.
type Fetcher interface {
	// Fetch performs exactly one retrieval of url. Failures are returned as
	// *entity.FetchError classified as entity.ErrNetwork or entity.ErrHTTPStatus.
	Fetch(ctx context.Context, url string) (*entity.FetchResult, error)
}
