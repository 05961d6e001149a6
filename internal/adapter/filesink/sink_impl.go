package filesink

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/user/site-crawler/pkg/utils"
)

const (
	maxReadableName = 180
	hashSuffixLen   = 12
)

// FileSink writes page bodies into a single pre-existing directory.
type FileSink struct {
	fs  afero.Fs
	dir string
}

// NewFileSink creates a sink over fs rooted at dir. The directory is not created.
func NewFileSink(fs afero.Fs, dir string) *FileSink {
	return &FileSink{fs: fs, dir: dir}
}

// Ready checks that the output directory exists and accepts writes.
func (s *FileSink) Ready(ctx context.Context) error {
	info, err := s.fs.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("output directory %s: %w", s.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output directory %s: not a directory", s.dir)
	}
	probe, err := afero.TempFile(s.fs, s.dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", s.dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	return s.fs.Remove(name)
}

// Save writes body under a name derived from rawURL. The file only appears
// under its final name once fully written.
func (s *FileSink) Save(ctx context.Context, rawURL string, body []byte) (string, error) {
	name := FileName(rawURL)

	tmp, err := afero.TempFile(s.fs, s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp file for %s: %w", rawURL, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return "", fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := s.fs.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = s.fs.Remove(tmpName)
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return name, nil
}

// FileName derives a filesystem safe, deterministic name from a URL:
// host and path with separators flattened to "_", followed by a short hash
// of the full URL so that distinct URLs never share a name.
func FileName(rawURL string) string {
	readable := "_"
	if u, err := url.Parse(rawURL); err == nil {
		host := strings.ReplaceAll(strings.ToLower(u.Host), ":", "_")
		readable = host + "_" + strings.ReplaceAll(strings.TrimPrefix(u.EscapedPath(), "/"), "/", "_")
	}
	readable = sanitize(readable)
	if len(readable) > maxReadableName {
		readable = readable[:maxReadableName]
	}
	return readable + "_" + utils.HashURL(rawURL)[:hashSuffixLen]
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
