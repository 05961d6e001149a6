package repository

import (
	"context"

	"github.com/user/site-crawler/internal/entity"
)

// PageRecordRepository defines the index of saved pages.
type PageRecordRepository interface {
	// Save records a successfully persisted page. Re-saving a URL within a crawl updates it.
	Save(ctx context.Context, record *entity.PageRecord) error
}
