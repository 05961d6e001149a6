package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// HashURL creates a SHA256 hash of a URL string.
// It keys Redis state and disambiguates file names derived from URLs.
func HashURL(rawURL string) string {
	h := sha256.New()
	h.Write([]byte(rawURL))
	return hex.EncodeToString(h.Sum(nil))
}

// ToAbsoluteURL resolves relative against base.
func ToAbsoluteURL(base *url.URL, relative string) (*url.URL, error) {
	relURL, err := url.Parse(relative)
	if err != nil {
		return nil, err
	}
	return base.ResolveReference(relURL), nil
}

// NormalizeURL returns the canonical string used for deduplication:
// lowercase scheme and host, no fragment, "/" for an empty path.
func NormalizeURL(u *url.URL) string {
	n := *u
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)
	n.Fragment = ""
	n.RawFragment = ""
	if n.Path == "" && n.Opaque == "" {
		n.Path = "/"
		n.RawPath = ""
	}
	return n.String()
}

// ParseSeed validates a crawl start URL and returns it normalized.
func ParseSeed(rawURL string) (*url.URL, string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, "", fmt.Errorf("invalid start URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, "", fmt.Errorf("invalid start URL %q: scheme must be http or https", rawURL)
	}
	if u.Host == "" {
		return nil, "", fmt.Errorf("invalid start URL %q: missing host", rawURL)
	}
	normalized := NormalizeURL(u)
	parsed, err := url.Parse(normalized)
	if err != nil {
		return nil, "", fmt.Errorf("invalid start URL: %w", err)
	}
	return parsed, normalized, nil
}
