package usecase

import "sync"

// workerPool runs tasks on a fixed set of goroutines that live for the whole
// crawl. Batches are submitted whole and awaited before the next one.
type workerPool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

func newWorkerPool(size int) *workerPool {
	p := &workerPool{tasks: make(chan func())}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// runBatch hands every task to the pool and blocks until all have returned.
func (p *workerPool) runBatch(tasks []func()) {
	var batch sync.WaitGroup
	batch.Add(len(tasks))
	for _, task := range tasks {
		p.tasks <- func() {
			defer batch.Done()
			task()
		}
	}
	batch.Wait()
}

// close stops the workers once they are idle.
func (p *workerPool) close() {
	close(p.tasks)
	p.wg.Wait()
}
