package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/site-crawler/internal/entity"
	"github.com/user/site-crawler/internal/repository"
	"github.com/user/site-crawler/pkg/utils"
)

var ErrCrawlNotFound = errors.New("crawl not found")

// FrontierFactory creates the empty frontier of a new crawl.
type FrontierFactory func(crawlID string) repository.FrontierRepository

// CrawlManager defines the interface for submitting and checking crawls.
type CrawlManager interface {
	Submit(ctx context.Context, opts CrawlOptions) (string, error)
	GetStatus(ctx context.Context, id string) (*entity.CrawlStatus, error)
	Shutdown()
}

type crawlManagerUseCase struct {
	crawler     *Crawler
	newFrontier FrontierFactory
	logger      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	crawls map[string]*entity.CrawlStatus
}

// NewCrawlManager creates a manager running each submitted crawl in the background.
func NewCrawlManager(crawler *Crawler, newFrontier FrontierFactory, logger *zap.Logger) CrawlManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &crawlManagerUseCase{
		crawler:     crawler,
		newFrontier: newFrontier,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		crawls:      make(map[string]*entity.CrawlStatus),
	}
}

// Submit validates opts and starts the crawl, returning its ID.
func (uc *crawlManagerUseCase) Submit(_ context.Context, opts CrawlOptions) (string, error) {
	if err := opts.validate(uc.crawler.maxWorkers); err != nil {
		return "", err
	}
	if _, _, err := utils.ParseSeed(opts.Seed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if err := uc.ctx.Err(); err != nil {
		return "", fmt.Errorf("crawl manager is shut down: %w", err)
	}

	crawlID := uuid.NewString()
	uc.mu.Lock()
	uc.crawls[crawlID] = &entity.CrawlStatus{
		ID:        crawlID,
		Seed:      opts.Seed,
		State:     entity.CrawlStateRunning,
		StartedAt: time.Now(),
	}
	uc.mu.Unlock()

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		stats, err := uc.crawler.Run(uc.ctx, crawlID, uc.newFrontier(crawlID), opts)
		uc.finish(crawlID, stats, err)
	}()

	uc.logger.Info("crawl submitted", zap.String("crawl_id", crawlID), zap.String("seed", opts.Seed))
	return crawlID, nil
}

func (uc *crawlManagerUseCase) finish(crawlID string, stats *entity.CrawlStats, err error) {
	now := time.Now()

	uc.mu.Lock()
	defer uc.mu.Unlock()
	status := uc.crawls[crawlID]
	status.FinishedAt = &now
	status.Stats = stats
	if err != nil {
		status.State = entity.CrawlStateFailed
		status.Error = err.Error()
		uc.logger.Error("crawl failed", zap.String("crawl_id", crawlID), zap.Error(err))
		return
	}
	status.State = entity.CrawlStateTerminated
}

// GetStatus returns a snapshot of the crawl's status.
func (uc *crawlManagerUseCase) GetStatus(_ context.Context, id string) (*entity.CrawlStatus, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	status, ok := uc.crawls[id]
	if !ok {
		return nil, ErrCrawlNotFound
	}
	snapshot := *status
	return &snapshot, nil
}

// Shutdown cancels running crawls and waits for them to stop.
func (uc *crawlManagerUseCase) Shutdown() {
	uc.cancel()
	uc.wg.Wait()
}
