package postgres

import (
	"context"

	"github.com/user/site-crawler/internal/entity"
)

// FailedURLRepoImpl provides a concrete implementation for the FailedURLRepository interface using PostgreSQL.
type FailedURLRepoImpl struct {
	db Execer
}

// NewFailedURLRepo creates a new instance of FailedURLRepoImpl.
func NewFailedURLRepo(db Execer) *FailedURLRepoImpl {
	return &FailedURLRepoImpl{db: db}
}

// Save appends a failed attempt. Failures are never retried, so each row is one attempt.
func (r *FailedURLRepoImpl) Save(ctx context.Context, failedURL *entity.FailedURL) error {
	query := `
		INSERT INTO failed_urls (crawl_id, url, failure_reason, http_status_code, attempted_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.db.Exec(ctx, query,
		failedURL.CrawlID,
		failedURL.URL,
		failedURL.FailureReason,
		failedURL.HTTPStatusCode,
		failedURL.AttemptedAt,
	)
	return err
}
