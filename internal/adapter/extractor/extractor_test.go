package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	t.Parallel()

	t.Run("returns hrefs verbatim in document order", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<a href="/b">B</a>
			<p><a href="https://other.com/x">other</a></p>
			<a href="javascript:void(0)">js</a>
			<a href="#">top</a>
			<a name="no-href">anchor</a>
			<a href="  c.html ">C</a>
		</body></html>`

		links, err := ExtractLinks([]byte(html))
		require.NoError(t, err)
		assert.Equal(t, []string{"/b", "https://other.com/x", "javascript:void(0)", "#", "  c.html "}, links)
	})

	t.Run("tolerates malformed markup", func(t *testing.T) {
		t.Parallel()

		links, err := ExtractLinks([]byte(`<div><a href="/a">one</a><div><a href="/b">two</a>`))
		require.NoError(t, err)
		assert.Equal(t, []string{"/a", "/b"}, links)
	})

	t.Run("no anchors yields empty slice", func(t *testing.T) {
		t.Parallel()

		links, err := ExtractLinks([]byte(`plain text`))
		require.NoError(t, err)
		assert.Empty(t, links)
	})
}

func TestIsHTML(t *testing.T) {
	t.Parallel()

	assert.True(t, IsHTML(""))
	assert.True(t, IsHTML("text/html; charset=utf-8"))
	assert.True(t, IsHTML("application/xhtml+xml"))
	assert.False(t, IsHTML("application/pdf"))
	assert.False(t, IsHTML("image/png"))
}
