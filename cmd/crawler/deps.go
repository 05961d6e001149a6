package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/user/site-crawler/internal/adapter/chromedp_crawler"
	"github.com/user/site-crawler/internal/adapter/filesink"
	"github.com/user/site-crawler/internal/adapter/httpfetch"
	"github.com/user/site-crawler/internal/adapter/postgres"
	redis_adapter "github.com/user/site-crawler/internal/adapter/redis"
	"github.com/user/site-crawler/internal/delivery/http/handler"
	"github.com/user/site-crawler/internal/frontier"
	"github.com/user/site-crawler/internal/repository"
	"github.com/user/site-crawler/internal/usecase"
	"github.com/user/site-crawler/pkg/config"
	"github.com/user/site-crawler/pkg/metrics"
)

// deps holds everything a command needs to run crawls.
type deps struct {
	crawler     *usecase.Crawler
	newFrontier usecase.FrontierFactory
	metrics     *metrics.Metrics
	checks      map[string]handler.HealthCheck
	closers     []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// buildDeps connects the backends selected by cfg. Postgres is optional and
// enabled by a non-empty POSTGRES_URL.
func buildDeps(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *zap.Logger) (*deps, error) {
	d := &deps{
		metrics: metrics.New(reg),
		checks:  make(map[string]handler.HealthCheck),
	}

	var fetcher repository.Fetcher
	switch cfg.Fetcher {
	case "chrome":
		cf, err := chromedp_crawler.NewChromedpFetcher(cfg.FetchTimeoutDuration(), cfg.UserAgent, logger)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, cf.Close)
		fetcher = cf
	default:
		fetcher = httpfetch.NewHTTPFetcher(httpfetch.Options{
			Timeout:      cfg.FetchTimeoutDuration(),
			UserAgent:    cfg.UserAgent,
			MaxBodyBytes: cfg.MaxBodyBytes,
		})
	}

	switch cfg.Frontier {
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		d.closers = append(d.closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			d.Close()
			return nil, fmt.Errorf("unable to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("redis connection established", zap.String("addr", cfg.RedisAddr))
		d.newFrontier = func(crawlID string) repository.FrontierRepository {
			return redis_adapter.NewFrontierRepo(rdb, crawlID)
		}
		d.checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	default:
		d.newFrontier = func(string) repository.FrontierRepository { return frontier.NewMemory() }
	}

	opts := []usecase.Option{
		usecase.WithLogger(logger),
		usecase.WithMetrics(d.metrics),
		usecase.WithMaxWorkers(cfg.MaxWorkers),
	}
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("unable to create postgres pool: %w", err)
		}
		d.closers = append(d.closers, pool.Close)
		if err := pool.Ping(ctx); err != nil {
			d.Close()
			return nil, fmt.Errorf("unable to connect to postgres: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			d.Close()
			return nil, err
		}
		logger.Info("postgres page index enabled")
		opts = append(opts,
			usecase.WithPageRecorder(postgres.NewPageRecordRepo(pool)),
			usecase.WithFailureRecorder(postgres.NewFailedURLRepo(pool)),
		)
		d.checks["postgres"] = pool.Ping
	}

	sink := filesink.NewFileSink(afero.NewOsFs(), cfg.OutputDir)
	d.crawler = usecase.NewCrawler(fetcher, sink, opts...)
	return d, nil
}
