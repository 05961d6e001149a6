package postgres

import (
	"context"

	"github.com/user/site-crawler/internal/entity"
)

// PageRecordRepoImpl provides a concrete implementation for the PageRecordRepository interface using PostgreSQL.
type PageRecordRepoImpl struct {
	db Execer
}

// NewPageRecordRepo creates a new instance of PageRecordRepoImpl.
func NewPageRecordRepo(db Execer) *PageRecordRepoImpl {
	return &PageRecordRepoImpl{db: db}
}

// Save stores or updates the record of a saved page.
func (r *PageRecordRepoImpl) Save(ctx context.Context, record *entity.PageRecord) error {
	query := `
		INSERT INTO crawled_pages (crawl_id, url, file_name, size_bytes, status_code, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (crawl_id, url) DO UPDATE SET
			file_name = EXCLUDED.file_name,
			size_bytes = EXCLUDED.size_bytes,
			status_code = EXCLUDED.status_code,
			fetched_at = EXCLUDED.fetched_at;
	`
	_, err := r.db.Exec(ctx, query,
		record.CrawlID,
		record.URL,
		record.FileName,
		record.SizeBytes,
		record.StatusCode,
		record.FetchedAt,
	)
	return err
}
