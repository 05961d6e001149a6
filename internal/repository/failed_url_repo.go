package repository

import (
	"context"

	"github.com/user/site-crawler/internal/entity"
)

// FailedURLRepository defines the log of URLs that could not be fetched.
type FailedURLRepository interface {
	// Save records a failed attempt.
	Save(ctx context.Context, failedURL *entity.FailedURL) error
}
