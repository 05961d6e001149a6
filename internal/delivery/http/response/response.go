package response

import (
	"time"

	"github.com/user/site-crawler/internal/entity"
)

type SubmitCrawlResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	CrawlID string `json:"crawl_id"`
}

// CrawlStatusResponse is a DTO for crawl status, mirroring entity.CrawlStatus
type CrawlStatusResponse struct {
	ID         string             `json:"id"`
	Seed       string             `json:"seed"`
	State      string             `json:"state"` // "running", "terminated", "failed"
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
	Stats      *entity.CrawlStats `json:"stats,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// FromStatus converts the use case snapshot into its wire form.
func FromStatus(s *entity.CrawlStatus) CrawlStatusResponse {
	return CrawlStatusResponse{
		ID:         s.ID,
		Seed:       s.Seed,
		State:      s.State,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
		Stats:      s.Stats,
		Error:      s.Error,
	}
}
