package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/user/site-crawler/internal/repository"
)

const keyPrefix = "crawler:"

// offerScript adds ARGV[1] to the visited set and, only if it was new,
// appends it to the queue. Running both in one script keeps the
// check-and-insert atomic across workers.
var offerScript = redis.NewScript(`
if redis.call("SADD", KEYS[1], ARGV[1]) == 1 then
	redis.call("RPUSH", KEYS[2], ARGV[1])
	return 1
end
return 0
`)

// seedScript is offerScript guarded by a seeded marker.
var seedScript = redis.NewScript(`
if redis.call("SETNX", KEYS[3], "1") == 0 then
	return 0
end
redis.call("SADD", KEYS[1], ARGV[1])
redis.call("RPUSH", KEYS[2], ARGV[1])
return 1
`)

// FrontierRepoImpl keeps one crawl's queue in a Redis list and its visited
// set in a Redis set, both namespaced by crawl ID.
type FrontierRepoImpl struct {
	client     *redis.Client
	queueKey   string
	visitedKey string
	seededKey  string
}

var _ repository.FrontierRepository = (*FrontierRepoImpl)(nil)

// NewFrontierRepo creates a frontier for crawlID.
func NewFrontierRepo(client *redis.Client, crawlID string) *FrontierRepoImpl {
	base := keyPrefix + crawlID
	return &FrontierRepoImpl{
		client:     client,
		queueKey:   base + ":queue",
		visitedKey: base + ":visited",
		seededKey:  base + ":seeded",
	}
}

func (r *FrontierRepoImpl) keys() []string {
	return []string{r.visitedKey, r.queueKey, r.seededKey}
}

func (r *FrontierRepoImpl) Seed(ctx context.Context, url string) error {
	added, err := seedScript.Run(ctx, r.client, r.keys(), url).Int()
	if err != nil {
		return fmt.Errorf("seed frontier: %w", err)
	}
	if added == 0 {
		return repository.ErrAlreadySeeded
	}
	return nil
}

// PopBatch removes up to n URLs from the head of the list.
func (r *FrontierRepoImpl) PopBatch(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	urls, err := r.client.LPopCount(ctx, r.queueKey, n).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Queue is empty, which is a normal state.
			return nil, nil
		}
		return nil, fmt.Errorf("pop frontier batch: %w", err)
	}
	return urls, nil
}

func (r *FrontierRepoImpl) Offer(ctx context.Context, url string) (bool, error) {
	added, err := offerScript.Run(ctx, r.client, r.keys()[:2], url).Int()
	if err != nil {
		return false, fmt.Errorf("offer %s: %w", url, err)
	}
	return added == 1, nil
}

func (r *FrontierRepoImpl) IsEmpty(ctx context.Context) (bool, error) {
	n, err := r.Len(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Len returns the current number of items in the queue.
func (r *FrontierRepoImpl) Len(ctx context.Context) (int, error) {
	n, err := r.client.LLen(ctx, r.queueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("frontier length: %w", err)
	}
	return int(n), nil
}

// Close deletes every key of the crawl.
func (r *FrontierRepoImpl) Close(ctx context.Context) error {
	return r.client.Del(ctx, r.keys()...).Err()
}
