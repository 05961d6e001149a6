package usecase

import (
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/user/site-crawler/pkg/metrics"
	"github.com/user/site-crawler/pkg/utils"
)

// Reasons a discovered link is not offered to the frontier.
const (
	DropEmpty      = "empty"
	DropFragment   = "fragment"
	DropScheme     = "scheme"
	DropMalformed  = "malformed"
	DropOutOfScope = "out_of_scope"
)

var dropReasons = []string{DropEmpty, DropFragment, DropScheme, DropMalformed, DropOutOfScope}

// LinkFilter resolves raw hrefs against the page they were found on and keeps
// only those under the crawl scope prefix. Rejections are counted, never
// reported as errors.
type LinkFilter struct {
	scope   string
	dropped map[string]*atomic.Int64
	metrics *metrics.Metrics
}

// NewLinkFilter creates a filter accepting URLs whose normalized form starts
// with scopePrefix. m may be nil.
func NewLinkFilter(scopePrefix string, m *metrics.Metrics) *LinkFilter {
	dropped := make(map[string]*atomic.Int64, len(dropReasons))
	for _, r := range dropReasons {
		dropped[r] = new(atomic.Int64)
	}
	return &LinkFilter{scope: scopePrefix, dropped: dropped, metrics: m}
}

// Resolve returns the normalized absolute URL for raw, or false when raw is
// malformed, not http(s), a same-page fragment, or out of scope.
func (f *LinkFilter) Resolve(base *url.URL, raw string) (string, bool) {
	resolved, reason := f.classify(base, raw)
	if reason != "" {
		f.dropped[reason].Add(1)
		if f.metrics != nil {
			f.metrics.LinksDropped.WithLabelValues(reason).Inc()
		}
		return "", false
	}
	return resolved, true
}

func (f *LinkFilter) classify(base *url.URL, raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", DropEmpty
	}
	if strings.HasPrefix(raw, "#") {
		return "", DropFragment
	}
	abs, err := utils.ToAbsoluteURL(base, raw)
	if err != nil {
		return "", DropMalformed
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", DropScheme
	}
	if abs.Host == "" {
		return "", DropMalformed
	}
	normalized := utils.NormalizeURL(abs)
	if !strings.HasPrefix(normalized, f.scope) {
		return "", DropOutOfScope
	}
	return normalized, ""
}

// Dropped returns how many links were rejected for reason.
func (f *LinkFilter) Dropped(reason string) int64 {
	if c, ok := f.dropped[reason]; ok {
		return c.Load()
	}
	return 0
}

// DroppedAll returns a snapshot of every drop counter.
func (f *LinkFilter) DroppedAll() map[string]int64 {
	out := make(map[string]int64, len(f.dropped))
	for r, c := range f.dropped {
		out[r] = c.Load()
	}
	return out
}
