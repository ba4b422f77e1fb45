// Package pipeline orchestrates one batch: validate, normalize, fan out
// derivative generation across the shared worker pool, fan in ordered
// results, write through the selected sink.
package pipeline

import (
	"context"
	"runtime"
	"sync"
)

// Pool - process-wide bounded worker pool for the CPU-bound
// decode-resize-encode tasks. Created once at startup, injected into the
// Pipeline, closed on shutdown.
type Pool struct {
	tasks     chan func()
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewPool starts size workers; size <= 0 falls back to the core count,
// since the tasks are CPU-bound and short-lived.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}

	p := &Pool{tasks: make(chan func())}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit blocks until a worker picks the task up or ctx is canceled.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for in-flight ones to finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}
