// Package frontier holds the in-process crawl frontier.
package frontier

import (
	"context"
	"sync"

	"github.com/user/site-crawler/internal/repository"
)

// Memory is a FIFO queue plus visited set guarded by a single mutex, so every
// check-and-insert is one critical section.
type Memory struct {
	mu      sync.Mutex
	queue   []string
	visited map[string]struct{}
	seeded  bool
}

var _ repository.FrontierRepository = (*Memory)(nil)

// NewMemory returns an empty frontier.
func NewMemory() *Memory {
	return &Memory{visited: make(map[string]struct{})}
}

func (m *Memory) Seed(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seeded {
		return repository.ErrAlreadySeeded
	}
	m.seeded = true
	m.visited[url] = struct{}{}
	m.queue = append(m.queue, url)
	return nil
}

func (m *Memory) PopBatch(_ context.Context, n int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || len(m.queue) == 0 {
		return nil, nil
	}
	n = min(n, len(m.queue))
	batch := make([]string, n)
	copy(batch, m.queue[:n])
	// Clear popped slots so the backing array does not pin the strings.
	clear(m.queue[:n])
	m.queue = m.queue[n:]
	return batch, nil
}

func (m *Memory) Offer(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.visited[url]; ok {
		return false, nil
	}
	m.visited[url] = struct{}{}
	m.queue = append(m.queue, url)
	return true, nil
}

func (m *Memory) IsEmpty(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue) == 0, nil
}

func (m *Memory) Len(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue), nil
}

// visitedCount returns how many distinct URLs have ever been queued.
func (m *Memory) visitedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visited)
}

func (m *Memory) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = nil
	m.visited = make(map[string]struct{})
	return nil
}
