package repository

import (
	"context"
	"errors"
)

var ErrAlreadySeeded = errors.New("frontier has already been seeded")

// FrontierRepository defines the FIFO queue of pending URLs together with the
// set of every URL ever queued. A URL can be accepted at most once.
type FrontierRepository interface {
	// Seed marks url as visited and queues it. It must be called once, before popping.
	Seed(ctx context.Context, url string) error
	// PopBatch removes and returns up to n URLs from the front of the queue.
	PopBatch(ctx context.Context, n int) ([]string, error)
	// Offer queues url unless it was seen before, reporting whether it was added.
	Offer(ctx context.Context, url string) (bool, error)
	// IsEmpty reports whether no URL is pending.
	IsEmpty(ctx context.Context) (bool, error)
	// Len returns the number of pending URLs.
	Len(ctx context.Context) (int, error)
	// Close discards the crawl state.
	Close(ctx context.Context) error
}
