package queue

import (
	"context"
	"sync"
)

// Task is one unit of work submitted to the pool.
type Task func(ctx context.Context)

// Pool is a bounded in-process worker pool. Hundreds of per-symbol timers
// submit analysis work here so a slow cycle occupies one worker instead of
// spawning unbounded goroutines.
type Pool struct {
	workers int
	tasks   chan Task

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewPool creates a pool with the given worker count and queue size.
func NewPool(workers, size int) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if size <= 0 {
		size = workers * 4
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan Task, size),
		done:    make(chan struct{}),
	}
}

// Start launches the workers. Idempotent.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker(ctx)
		}
	})
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case t := <-p.tasks:
			if t != nil {
				t(ctx)
			}
		}
	}
}

// Submit enqueues a task without blocking. It reports false when the queue
// is full or the pool is stopped; callers decide whether a drop matters.
func (p *Pool) Submit(t Task) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.tasks <- t:
		return true
	default:
		return false
	}
}

// Stop stops accepting work and waits for in-flight tasks to finish.
// Queued-but-unstarted tasks are discarded.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
	p.wg.Wait()
}
