package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/site-crawler/internal/usecase"
)

func newCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [start-url]",
		Short: "Crawl every page under start-url and save each one to the output directory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCrawl,
	}
	f := cmd.Flags()
	f.Int("workers", 50, "number of pages fetched concurrently")
	f.Int("max-pages", 100, "maximum number of pages to attempt")
	f.String("output-dir", "files", "existing directory the pages are written to")
	f.String("fetcher", "http", "page fetcher: http or chrome")
	f.String("frontier", "memory", "frontier backend: memory or redis")
	return cmd
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	seed := cfg.StartURL
	if len(args) == 1 {
		seed = args[0]
	}
	if seed == "" {
		return errors.New("a start URL is required, as an argument or START_URL")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg, prometheus.NewRegistry(), logger)
	if err != nil {
		return err
	}
	defer d.Close()

	crawlID := uuid.NewString()
	stats, err := d.crawler.Run(ctx, crawlID, d.newFrontier(crawlID), usecase.CrawlOptions{
		Seed:     seed,
		Workers:  cfg.CrawlWorkers,
		MaxPages: cfg.MaxPages,
	})
	if stats == nil {
		return err
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("crawl interrupted", zap.String("crawl_id", crawlID))
		} else {
			logger.Error("crawl stopped early", zap.String("crawl_id", crawlID), zap.Error(err))
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Crawling finished.")
	fmt.Fprintf(out, "pages=%d saved=%d fetch_errors=%d save_errors=%d links_enqueued=%d duration=%s\n",
		stats.Pages, stats.Saved, stats.FetchErrors, stats.SaveErrors, stats.LinksEnqueued, stats.Duration.Round(time.Millisecond))
	return nil
}
