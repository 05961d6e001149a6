package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/user/site-crawler/internal/entity"
	"github.com/user/site-crawler/internal/repository"
	"github.com/user/site-crawler/pkg/metrics"
	"github.com/user/site-crawler/pkg/utils"
)

var ErrInvalidOptions = errors.New("invalid crawl options")

// DefaultMaxWorkers caps CrawlOptions.Workers unless WithMaxWorkers says otherwise.
const DefaultMaxWorkers = 1000

// CrawlOptions bound a single crawl.
type CrawlOptions struct {
	Seed     string
	Workers  int
	MaxPages int
}

func (o CrawlOptions) validate(maxWorkers int) error {
	if o.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidOptions, o.Workers)
	}
	if o.Workers > maxWorkers {
		return fmt.Errorf("%w: workers must be at most %d, got %d", ErrInvalidOptions, maxWorkers, o.Workers)
	}
	if o.MaxPages < 1 {
		return fmt.Errorf("%w: max pages must be positive, got %d", ErrInvalidOptions, o.MaxPages)
	}
	return nil
}

// Crawler drives breadth-first crawls: it pops batches from a frontier,
// fetches them on a bounded worker pool, saves bodies and feeds in-scope
// links back into the frontier until the frontier drains or the page budget
// is spent.
type Crawler struct {
	fetcher  repository.Fetcher
	sink     repository.PageSink
	pages    repository.PageRecordRepository
	failures repository.FailedURLRepository
	metrics  *metrics.Metrics
	logger   *zap.Logger

	maxWorkers int
}

// Option customizes a Crawler.
type Option func(*Crawler)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Crawler) { c.logger = l }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Crawler) { c.metrics = m }
}

// WithMaxWorkers sets the largest accepted CrawlOptions.Workers.
func WithMaxWorkers(n int) Option {
	return func(c *Crawler) { c.maxWorkers = n }
}

// WithPageRecorder indexes every saved page.
func WithPageRecorder(r repository.PageRecordRepository) Option {
	return func(c *Crawler) { c.pages = r }
}

// WithFailureRecorder logs every failed fetch.
func WithFailureRecorder(r repository.FailedURLRepository) Option {
	return func(c *Crawler) { c.failures = r }
}

// NewCrawler creates a new crawler use case.
func NewCrawler(fetcher repository.Fetcher, sink repository.PageSink, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:    fetcher,
		sink:       sink,
		logger:     zap.NewNop(),
		maxWorkers: DefaultMaxWorkers,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// crawlRun is the state of one Run call shared by its workers.
type crawlRun struct {
	id       string
	frontier repository.FrontierRepository
	filter   *LinkFilter

	pages, fetched, saved         atomic.Int64
	fetchErrors, saveErrors       atomic.Int64
	linksEnqueued, linksDuplicate atomic.Int64
}

// Run crawls from opts.Seed using frontier, which must be empty, and tears the
// frontier down on return. Setup problems are returned before anything is
// fetched; per-page failures are logged and never stop the crawl. If ctx is
// cancelled the crawl stops after the current batch and returns ctx.Err()
// together with the stats gathered so far.
func (c *Crawler) Run(ctx context.Context, crawlID string, frontier repository.FrontierRepository, opts CrawlOptions) (*entity.CrawlStats, error) {
	if err := opts.validate(c.maxWorkers); err != nil {
		return nil, err
	}
	_, seed, err := utils.ParseSeed(opts.Seed)
	if err != nil {
		return nil, err
	}
	if err := c.sink.Ready(ctx); err != nil {
		return nil, fmt.Errorf("sink not ready: %w", err)
	}

	// A frontier that refuses the seed belongs to someone else; leave it alone.
	if err := frontier.Seed(ctx, seed); err != nil {
		return nil, fmt.Errorf("seed frontier: %w", err)
	}
	defer func() {
		if err := frontier.Close(context.WithoutCancel(ctx)); err != nil {
			c.logger.Warn("failed to tear down frontier", zap.String("crawl_id", crawlID), zap.Error(err))
		}
	}()

	run := &crawlRun{
		id:       crawlID,
		frontier: frontier,
		filter:   NewLinkFilter(seed, c.metrics),
	}

	c.logger.Info("crawl started",
		zap.String("crawl_id", crawlID),
		zap.String("seed", seed),
		zap.Int("workers", opts.Workers),
		zap.Int("max_pages", opts.MaxPages),
	)
	start := time.Now()

	// No batch is ever wider than the budget.
	pool := newWorkerPool(min(opts.Workers, opts.MaxPages))
	defer pool.close()

	runErr := c.loop(ctx, run, pool, opts)

	stats := run.stats(time.Since(start))
	c.logger.Info("crawl finished",
		zap.String("crawl_id", crawlID),
		zap.Int64("pages", stats.Pages),
		zap.Int64("saved", stats.Saved),
		zap.Int64("fetch_errors", stats.FetchErrors),
		zap.Duration("duration", stats.Duration),
	)
	return stats, runErr
}

func (c *Crawler) loop(ctx context.Context, run *crawlRun, pool *workerPool, opts CrawlOptions) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		remaining := int64(opts.MaxPages) - run.pages.Load()
		if remaining <= 0 {
			return nil
		}
		empty, err := run.frontier.IsEmpty(ctx)
		if err != nil {
			return fmt.Errorf("check frontier: %w", err)
		}
		if empty {
			return nil
		}

		batch, err := run.frontier.PopBatch(ctx, int(min(int64(opts.Workers), remaining)))
		if err != nil {
			// Without the frontier there is nothing left to schedule.
			return fmt.Errorf("pop frontier: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}

		// Budget is consumed at pop time, whatever the fetch outcome.
		run.pages.Add(int64(len(batch)))
		if c.metrics != nil {
			c.metrics.PagesProcessed.Add(float64(len(batch)))
		}

		tasks := make([]func(), len(batch))
		for i, pageURL := range batch {
			tasks[i] = func() { c.processURL(ctx, run, pageURL) }
		}
		pool.runBatch(tasks)

		c.observeFrontier(ctx, run)
	}
}

// processURL fetches one page, saves it and offers its in-scope links.
func (c *Crawler) processURL(ctx context.Context, run *crawlRun, pageURL string) {
	startTime := time.Now()
	result, err := c.fetcher.Fetch(ctx, pageURL)
	if c.metrics != nil {
		c.metrics.FetchDuration.Observe(time.Since(startTime).Seconds())
	}
	if err != nil {
		c.handleFetchFailure(ctx, run, pageURL, err)
		return
	}
	run.fetched.Add(1)

	name, err := c.sink.Save(ctx, pageURL, result.Body)
	if err != nil {
		run.saveErrors.Add(1)
		if c.metrics != nil {
			c.metrics.SaveErrors.Inc()
		}
		c.logger.Error("failed to save page", zap.String("url", pageURL), zap.Error(err))
		return
	}
	run.saved.Add(1)
	if c.metrics != nil {
		c.metrics.PagesSaved.Inc()
	}
	c.logger.Info("successfully saved page", zap.String("url", pageURL), zap.String("file", name))

	if c.pages != nil {
		record := &entity.PageRecord{
			CrawlID:    run.id,
			URL:        pageURL,
			FileName:   name,
			SizeBytes:  len(result.Body),
			StatusCode: result.StatusCode,
			FetchedAt:  time.Now(),
		}
		if err := c.pages.Save(ctx, record); err != nil {
			// This is not a critical error, just log it.
			c.logger.Warn("failed to record saved page", zap.String("url", pageURL), zap.Error(err))
		}
	}

	// Relative links resolve against where the page ended up after redirects.
	base := result.URL
	if base == "" {
		base = pageURL
	}
	c.offerLinks(ctx, run, base, result.Links)
}

func (c *Crawler) offerLinks(ctx context.Context, run *crawlRun, pageURL string, links []string) {
	if len(links) == 0 {
		return
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return
	}
	for _, raw := range links {
		link, ok := run.filter.Resolve(base, raw)
		if !ok {
			continue
		}
		added, err := run.frontier.Offer(ctx, link)
		if err != nil {
			c.logger.Error("failed to offer link", zap.String("url", link), zap.String("found_on", pageURL), zap.Error(err))
			continue
		}
		if !added {
			run.linksDuplicate.Add(1)
			continue
		}
		run.linksEnqueued.Add(1)
		if c.metrics != nil {
			c.metrics.LinksEnqueued.Inc()
		}
	}
}

func (c *Crawler) handleFetchFailure(ctx context.Context, run *crawlRun, pageURL string, fetchErr error) {
	run.fetchErrors.Add(1)

	kind := "network"
	var statusCode int
	var fe *entity.FetchError
	if errors.As(fetchErr, &fe) {
		kind = fe.Kind()
		statusCode = fe.StatusCode
	}
	if c.metrics != nil {
		c.metrics.FetchErrors.WithLabelValues(kind).Inc()
	}
	c.logger.Warn("failed to fetch page", zap.String("url", pageURL), zap.String("kind", kind), zap.Error(fetchErr))

	if c.failures == nil {
		return
	}
	failedURL := &entity.FailedURL{
		CrawlID:        run.id,
		URL:            pageURL,
		FailureReason:  fetchErr.Error(),
		HTTPStatusCode: statusCode,
		AttemptedAt:    time.Now(),
	}
	if err := c.failures.Save(ctx, failedURL); err != nil {
		c.logger.Warn("failed to record failed URL", zap.String("url", pageURL), zap.Error(err))
	}
}

func (c *Crawler) observeFrontier(ctx context.Context, run *crawlRun) {
	if c.metrics == nil {
		return
	}
	if n, err := run.frontier.Len(ctx); err == nil {
		c.metrics.FrontierSize.Set(float64(n))
	}
}

func (r *crawlRun) stats(elapsed time.Duration) *entity.CrawlStats {
	return &entity.CrawlStats{
		Pages:          r.pages.Load(),
		Fetched:        r.fetched.Load(),
		Saved:          r.saved.Load(),
		FetchErrors:    r.fetchErrors.Load(),
		SaveErrors:     r.saveErrors.Load(),
		LinksEnqueued:  r.linksEnqueued.Load(),
		LinksDuplicate: r.linksDuplicate.Load(),
		LinksDropped:   r.filter.DroppedAll(),
		Duration:       elapsed,
	}
}
