package chromedp_crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/site-crawler/internal/adapter/extractor"
	"github.com/user/site-crawler/internal/entity"
)

const defaultUserAgent = `Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36`

// ChromedpFetcher renders pages as tabs of one shared headless Chrome
// process and returns the rendered DOM as the page body.
type ChromedpFetcher struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	timeout       time.Duration
}

// NewChromedpFetcher launches the browser every Fetch opens its tab in.
func NewChromedpFetcher(pageLoadTimeout time.Duration, userAgent string, logger *zap.Logger) (*ChromedpFetcher, error) {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))

	// Running an empty task list starts the browser, so later contexts
	// derived from browserCtx become tabs instead of new processes.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &ChromedpFetcher{
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
		timeout:       pageLoadTimeout,
	}, nil
}

// Fetch navigates to url in a fresh tab. The status comes from the main
// document response; the body is the outer HTML after load.
func (c *ChromedpFetcher) Fetch(ctx context.Context, url string) (*entity.FetchResult, error) {
	taskCtx, cancel := chromedp.NewContext(c.browserCtx)
	defer cancel()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, c.timeout)
	defer cancelTimeout()

	// Tie the tab to the caller's context as well.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	resp, err := chromedp.RunResponse(taskCtx, chromedp.Navigate(url))
	if err != nil {
		return nil, entity.NewNetworkError(url, err)
	}
	status := statusOf(resp)
	if status < 200 || status > 299 {
		return nil, entity.NewHTTPStatusError(url, status)
	}

	var html, location string
	if err := chromedp.Run(taskCtx,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return nil, entity.NewNetworkError(url, err)
	}
	if location == "" {
		location = url
	}

	body := []byte(html)
	links, err := extractor.ExtractLinks(body)
	if err != nil {
		links = nil
	}

	return &entity.FetchResult{
		URL:         location,
		StatusCode:  status,
		ContentType: mimeOf(resp),
		Body:        body,
		Links:       links,
	}, nil
}

// Close shuts the browser down.
func (c *ChromedpFetcher) Close() {
	c.cancelBrowser()
	c.cancelAlloc()
}

func statusOf(resp *network.Response) int {
	if resp == nil {
		// Navigations served from cache or about: pages carry no response.
		return 200
	}
	return int(resp.Status)
}

func mimeOf(resp *network.Response) string {
	if resp == nil {
		return ""
	}
	return resp.MimeType
}
