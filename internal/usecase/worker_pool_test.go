package usecase

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_RunBatch(t *testing.T) {
	t.Parallel()

	const size = 3
	p := newWorkerPool(size)
	defer p.close()

	var inflight, peak, done atomic.Int32
	task := func() {
		n := inflight.Add(1)
		for {
			cur := peak.Load()
			if n <= cur || peak.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inflight.Add(-1)
		done.Add(1)
	}

	for range 3 {
		p.runBatch([]func(){task, task, task})
		// The batch is fully drained before runBatch returns.
		assert.Equal(t, int32(0), inflight.Load())
	}
	assert.Equal(t, int32(9), done.Load())
	assert.LessOrEqual(t, peak.Load(), int32(size))
}

func TestWorkerPool_EmptyBatch(t *testing.T) {
	t.Parallel()

	p := newWorkerPool(1)
	p.runBatch(nil)
	p.close()
}
