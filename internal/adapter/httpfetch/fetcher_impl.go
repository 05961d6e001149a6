package httpfetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/user/site-crawler/internal/adapter/extractor"
	"github.com/user/site-crawler/internal/entity"
)

const (
	defaultUserAgent    = "site-crawler/1.0 (+https://github.com/user/site-crawler)"
	defaultMaxBodyBytes = 10 * 1024 * 1024
	defaultTimeout      = 30 * time.Second
)

// Options configures an HTTPFetcher.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	// Client overrides the default client, mainly for tests.
	Client *http.Client
}

// HTTPFetcher retrieves pages with a plain GET and extracts anchor hrefs.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	maxBodyBytes int64
}

// NewHTTPFetcher creates a fetcher. Zero options fall back to defaults.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPFetcher{
		client:       client,
		userAgent:    opts.UserAgent,
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

// Fetch performs a single GET. There is no retry.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*entity.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, entity.NewNetworkError(url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, entity.NewNetworkError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, entity.NewHTTPStatusError(url, resp.StatusCode)
	}

	// One byte past the cap tells a full body from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return nil, entity.NewNetworkError(url, err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, entity.NewBodyTooLargeError(url, f.maxBodyBytes)
	}

	result := &entity.FetchResult{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
	if extractor.IsHTML(result.ContentType) {
		// goquery accepts any byte stream; an error here means the reader failed,
		// which cannot happen for an in-memory body. Treat it as no links.
		if links, err := extractor.ExtractLinks(body); err == nil {
			result.Links = links
		}
	}
	return result, nil
}
