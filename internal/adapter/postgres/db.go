package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of *pgxpool.Pool the repositories need.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS crawled_pages (
	id          BIGSERIAL PRIMARY KEY,
	crawl_id    TEXT        NOT NULL,
	url         TEXT        NOT NULL,
	file_name   TEXT        NOT NULL,
	size_bytes  INTEGER     NOT NULL,
	status_code INTEGER     NOT NULL,
	fetched_at  TIMESTAMPTZ NOT NULL,
	UNIQUE (crawl_id, url)
);

CREATE TABLE IF NOT EXISTS failed_urls (
	id               BIGSERIAL PRIMARY KEY,
	crawl_id         TEXT        NOT NULL,
	url              TEXT        NOT NULL,
	failure_reason   TEXT        NOT NULL,
	http_status_code INTEGER     NOT NULL DEFAULT 0,
	attempted_at     TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the index tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db Execer) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
