package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/user/site-crawler/internal/entity"
	"github.com/user/site-crawler/internal/frontier"
	"github.com/user/site-crawler/internal/repository"
	"github.com/user/site-crawler/pkg/metrics"
)

const seedURL = "https://example.com/"

// fakeSite serves a synthetic link graph keyed by absolute URL.
type fakeSite struct {
	pages map[string][]string
	fail  map[string]error
	moved map[string]string // requested URL -> final URL after redirects
	delay time.Duration
	hook  func(url string)

	mu       sync.Mutex
	order    []string
	inflight atomic.Int32
	peak     atomic.Int32
}

func (s *fakeSite) Fetch(ctx context.Context, url string) (*entity.FetchResult, error) {
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		cur := s.peak.Load()
		if n <= cur || s.peak.CompareAndSwap(cur, n) {
			break
		}
	}

	s.mu.Lock()
	s.order = append(s.order, url)
	s.mu.Unlock()

	if s.hook != nil {
		s.hook(url)
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if err, ok := s.fail[url]; ok {
		return nil, err
	}
	final := url
	if to, ok := s.moved[url]; ok {
		final = to
	}
	links, ok := s.pages[final]
	if !ok {
		return nil, entity.NewHTTPStatusError(url, 404)
	}
	return &entity.FetchResult{URL: final, StatusCode: 200, Body: []byte("body of " + final), Links: links}, nil
}

func (s *fakeSite) fetched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

type memSink struct {
	readyErr error
	failOn   map[string]bool

	mu    sync.Mutex
	saved map[string][]byte
}

func newMemSink() *memSink {
	return &memSink{saved: make(map[string][]byte), failOn: make(map[string]bool)}
}

func (s *memSink) Ready(context.Context) error { return s.readyErr }

func (s *memSink) Save(_ context.Context, url string, body []byte) (string, error) {
	if s.failOn[url] {
		return "", errors.New("disk full")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[url] = body
	return "file-" + url, nil
}

func (s *memSink) has(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.saved[url]
	return ok
}

type recorder struct {
	mu      sync.Mutex
	pages   []*entity.PageRecord
	failed  []*entity.FailedURL
	saveErr error
}

func (r *recorder) Save(_ context.Context, p *entity.PageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = append(r.pages, p)
	return r.saveErr
}

type failedRecorder struct{ r *recorder }

func (f failedRecorder) Save(_ context.Context, u *entity.FailedURL) error {
	f.r.mu.Lock()
	defer f.r.mu.Unlock()
	f.r.failed = append(f.r.failed, u)
	return nil
}

func u(path string) string { return "https://example.com" + path }

func runCrawl(t *testing.T, c *Crawler, workers, maxPages int) *entity.CrawlStats {
	t.Helper()
	stats, err := c.Run(context.Background(), "test", frontier.NewMemory(), CrawlOptions{Seed: seedURL, Workers: workers, MaxPages: maxPages})
	require.NoError(t, err)
	return stats
}

func TestCrawler_BFSOrderWithSingleWorker(t *testing.T) {
	t.Parallel()

	site := &fakeSite{pages: map[string][]string{
		u("/"):  {"/b", "/c"},
		u("/b"): {"/d", "/"},
		u("/c"): {"/b"},
		u("/d"): {},
	}}
	stats := runCrawl(t, NewCrawler(site, newMemSink()), 1, 100)

	assert.Equal(t, []string{u("/"), u("/b"), u("/c"), u("/d")}, site.fetched())
	assert.Equal(t, int64(4), stats.Pages)
	assert.Equal(t, int64(4), stats.Saved)
	assert.Equal(t, int64(3), stats.LinksEnqueued)
	assert.Equal(t, int64(2), stats.LinksDuplicate)
}

func TestCrawler_BFSLevelsAcrossBatches(t *testing.T) {
	t.Parallel()

	site := &fakeSite{pages: map[string][]string{
		u("/"):  {"/b", "/c"},
		u("/b"): {"/d"},
		u("/c"): {"/e"},
		u("/d"): {},
		u("/e"): {},
	}}
	runCrawl(t, NewCrawler(site, newMemSink()), 2, 100)

	order := site.fetched()
	require.Len(t, order, 5)
	assert.Equal(t, u("/"), order[0])
	assert.ElementsMatch(t, []string{u("/b"), u("/c")}, order[1:3])
	assert.ElementsMatch(t, []string{u("/d"), u("/e")}, order[3:5])
}

func TestCrawler_BudgetIsNeverExceeded(t *testing.T) {
	t.Parallel()

	links := make([]string, 0, 30)
	pages := map[string][]string{}
	for i := range 30 {
		p := fmt.Sprintf("/p%d", i)
		links = append(links, p)
		pages[u(p)] = []string{fmt.Sprintf("/q%d", i)}
	}
	pages[u("/")] = links

	for _, tc := range []struct{ workers, maxPages int }{{1, 1}, {3, 5}, {4, 10}, {50, 7}} {
		t.Run(fmt.Sprintf("workers=%d max=%d", tc.workers, tc.maxPages), func(t *testing.T) {
			t.Parallel()

			site := &fakeSite{pages: pages}
			stats := runCrawl(t, NewCrawler(site, newMemSink()), tc.workers, tc.maxPages)
			assert.Len(t, site.fetched(), tc.maxPages)
			assert.Equal(t, int64(tc.maxPages), stats.Pages)
		})
	}
}

func TestCrawler_FailuresConsumeBudget(t *testing.T) {
	t.Parallel()

	site := &fakeSite{pages: map[string][]string{
		u("/"):   {"/missing1", "/missing2", "/ok"},
		u("/ok"): {},
	}}
	stats := runCrawl(t, NewCrawler(site, newMemSink()), 1, 3)

	assert.Equal(t, []string{u("/"), u("/missing1"), u("/missing2")}, site.fetched())
	assert.Equal(t, int64(3), stats.Pages)
	assert.Equal(t, int64(2), stats.FetchErrors)
}

func TestCrawler_ScopeFiltering(t *testing.T) {
	t.Parallel()

	site := &fakeSite{pages: map[string][]string{
		u("/docs/"):      {"https://other.com/x", "/blog", "guide", "//cdn.example.net/lib.js"},
		u("/docs/guide"): {},
	}}
	stats, err := NewCrawler(site, newMemSink()).Run(context.Background(), "scope", frontier.NewMemory(),
		CrawlOptions{Seed: u("/docs/"), Workers: 4, MaxPages: 100})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{u("/docs/"), u("/docs/guide")}, site.fetched())
	assert.Equal(t, int64(3), stats.LinksDropped[DropOutOfScope])
}

func TestCrawler_ResolvesLinksAgainstRedirectTarget(t *testing.T) {
	t.Parallel()

	site := &fakeSite{
		pages: map[string][]string{
			u("/docs/"):      {"guide", "../blog"},
			u("/docs/guide"): {},
		},
		moved: map[string]string{u("/docs"): u("/docs/")},
	}
	stats, err := NewCrawler(site, newMemSink()).Run(context.Background(), "redirect", frontier.NewMemory(),
		CrawlOptions{Seed: u("/docs"), Workers: 1, MaxPages: 10})
	require.NoError(t, err)

	assert.Equal(t, []string{u("/docs"), u("/docs/guide")}, site.fetched())
	assert.Equal(t, int64(1), stats.LinksEnqueued)
	assert.Equal(t, int64(1), stats.LinksDropped[DropOutOfScope])
}

func TestCrawler_FailureIsolation(t *testing.T) {
	t.Parallel()

	site := &fakeSite{
		pages: map[string][]string{
			u("/"):  {"/b", "/c"},
			u("/c"): {},
		},
		fail: map[string]error{u("/b"): entity.NewNetworkError(u("/b"), errors.New("connection reset"))},
	}
	sink := newMemSink()
	rec := &recorder{}
	c := NewCrawler(site, sink, WithPageRecorder(rec), WithFailureRecorder(failedRecorder{rec}))
	stats := runCrawl(t, c, 2, 100)

	assert.True(t, sink.has(u("/c")), "sibling of a failed page is still saved")
	assert.False(t, sink.has(u("/b")))
	assert.Equal(t, int64(1), stats.FetchErrors)
	assert.Equal(t, int64(2), stats.Saved)
	assert.Equal(t, int64(3), stats.Pages)

	require.Len(t, rec.failed, 1)
	assert.Equal(t, u("/b"), rec.failed[0].URL)
	assert.Equal(t, "test", rec.failed[0].CrawlID)
	assert.Contains(t, rec.failed[0].FailureReason, "connection reset")
	assert.Len(t, rec.pages, 2)
}

func TestCrawler_TerminatesWhenFrontierDrains(t *testing.T) {
	t.Parallel()

	site := &fakeSite{pages: map[string][]string{u("/"): {}}}
	stats := runCrawl(t, NewCrawler(site, newMemSink()), 50, 1_000_000)

	assert.Equal(t, []string{u("/")}, site.fetched())
	assert.Equal(t, int64(1), stats.Pages)
}

func TestCrawler_IgnoresNonNavigableLinksQuietly(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	site := &fakeSite{pages: map[string][]string{u("/"): {"javascript:void(0)", "#", "mailto:a@example.com"}}}
	stats := runCrawl(t, NewCrawler(site, newMemSink(), WithLogger(zap.New(core))), 2, 10)

	assert.Equal(t, []string{u("/")}, site.fetched())
	assert.Equal(t, int64(0), stats.LinksEnqueued)
	assert.Equal(t, int64(2), stats.LinksDropped[DropScheme])
	assert.Equal(t, int64(1), stats.LinksDropped[DropFragment])
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, 1, logs.FilterMessage("successfully saved page").Len())
}

func TestCrawler_SaveFailureContributesNoLinks(t *testing.T) {
	t.Parallel()

	site := &fakeSite{pages: map[string][]string{u("/"): {"/b"}, u("/b"): {}}}
	sink := newMemSink()
	sink.failOn[u("/")] = true

	core, logs := observer.New(zapcore.InfoLevel)
	stats := runCrawl(t, NewCrawler(site, sink, WithLogger(zap.New(core))), 2, 10)

	assert.Equal(t, []string{u("/")}, site.fetched())
	assert.Equal(t, int64(1), stats.SaveErrors)
	assert.Equal(t, int64(0), stats.Saved)
	assert.Equal(t, 1, logs.FilterMessage("failed to save page").Len())
}

func TestCrawler_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	links := make([]string, 0, 12)
	pages := map[string][]string{}
	for i := range 12 {
		p := fmt.Sprintf("/p%d", i)
		links = append(links, p)
		pages[u(p)] = nil
	}
	pages[u("/")] = links

	site := &fakeSite{pages: pages, delay: 10 * time.Millisecond}
	runCrawl(t, NewCrawler(site, newMemSink()), 3, 100)

	assert.Len(t, site.fetched(), 13)
	assert.LessOrEqual(t, site.peak.Load(), int32(3))
}

func TestCrawler_SetupErrorsAreFatal(t *testing.T) {
	t.Parallel()

	site := &fakeSite{pages: map[string][]string{u("/"): {}}}
	t.Cleanup(func() { assert.Empty(t, site.fetched()) })

	t.Run("sink not ready", func(t *testing.T) {
		t.Parallel()

		sink := newMemSink()
		sink.readyErr = errors.New("output directory files: no such file or directory")
		_, err := NewCrawler(site, sink).Run(context.Background(), "x", frontier.NewMemory(),
			CrawlOptions{Seed: seedURL, Workers: 1, MaxPages: 1})
		assert.ErrorIs(t, err, sink.readyErr)
	})

	t.Run("invalid options", func(t *testing.T) {
		t.Parallel()

		c := NewCrawler(site, newMemSink())
		_, err := c.Run(context.Background(), "x", frontier.NewMemory(), CrawlOptions{Seed: seedURL, Workers: 0, MaxPages: 1})
		assert.ErrorIs(t, err, ErrInvalidOptions)
		_, err = c.Run(context.Background(), "x", frontier.NewMemory(), CrawlOptions{Seed: seedURL, Workers: 1, MaxPages: 0})
		assert.ErrorIs(t, err, ErrInvalidOptions)
	})

	t.Run("too many workers", func(t *testing.T) {
		t.Parallel()

		c := NewCrawler(site, newMemSink(), WithMaxWorkers(8))
		_, err := c.Run(context.Background(), "x", frontier.NewMemory(), CrawlOptions{Seed: seedURL, Workers: 9, MaxPages: 1})
		assert.ErrorIs(t, err, ErrInvalidOptions)

		_, err = NewCrawler(site, newMemSink()).Run(context.Background(), "x", frontier.NewMemory(),
			CrawlOptions{Seed: seedURL, Workers: DefaultMaxWorkers + 1, MaxPages: 1})
		assert.ErrorIs(t, err, ErrInvalidOptions)
	})

	t.Run("frontier already seeded", func(t *testing.T) {
		t.Parallel()

		f := frontier.NewMemory()
		require.NoError(t, f.Seed(context.Background(), u("/other")))

		_, err := NewCrawler(site, newMemSink()).Run(context.Background(), "x", f,
			CrawlOptions{Seed: seedURL, Workers: 1, MaxPages: 1})
		assert.ErrorIs(t, err, repository.ErrAlreadySeeded)

		n, err := f.Len(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, n, "the owning crawl's queue is untouched")
	})

	t.Run("invalid seed", func(t *testing.T) {
		t.Parallel()

		_, err := NewCrawler(site, newMemSink()).Run(context.Background(), "x", frontier.NewMemory(),
			CrawlOptions{Seed: "not a url", Workers: 1, MaxPages: 1})
		assert.Error(t, err)
	})

}

func TestCrawler_StopsOnCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	site := &fakeSite{
		pages: map[string][]string{u("/"): {"/a", "/b"}, u("/a"): {}, u("/b"): {}},
		hook:  func(string) { cancel() },
	}
	stats, err := NewCrawler(site, newMemSink()).Run(ctx, "cancel", frontier.NewMemory(),
		CrawlOptions{Seed: seedURL, Workers: 1, MaxPages: 10})

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, stats)
	assert.Equal(t, int64(1), stats.Pages)
}

func TestCrawler_TearsDownFrontier(t *testing.T) {
	t.Parallel()

	site := &fakeSite{pages: map[string][]string{u("/"): {"/a"}, u("/a"): {}}}
	f := frontier.NewMemory()
	_, err := NewCrawler(site, newMemSink()).Run(context.Background(), "x", f, CrawlOptions{Seed: seedURL, Workers: 1, MaxPages: 10})
	require.NoError(t, err)

	empty, err := f.IsEmpty(context.Background())
	require.NoError(t, err)
	assert.True(t, empty)
	added, err := f.Offer(context.Background(), u("/a"))
	require.NoError(t, err)
	assert.True(t, added, "visited set is cleared on teardown")
}

func TestCrawler_Metrics(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	site := &fakeSite{
		pages: map[string][]string{u("/"): {"/a", "/gone", "#"}, u("/a"): {}},
	}
	runCrawl(t, NewCrawler(site, newMemSink(), WithMetrics(m)), 2, 10)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.PagesProcessed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesSaved))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LinksEnqueued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchErrors.WithLabelValues("http_status")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LinksDropped.WithLabelValues(DropFragment)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FrontierSize))
}
