package extractor

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractLinks parses HTML content and returns every anchor href, verbatim and
// in document order. Resolution and filtering are left to the caller.
func ExtractLinks(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	links := make([]string, 0)
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if exists {
			links = append(links, href)
		}
	})
	return links, nil
}

// IsHTML reports whether a Content-Type header denotes a document worth
// scanning for links. An absent header is treated as HTML.
func IsHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
