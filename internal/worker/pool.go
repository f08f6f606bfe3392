package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work producing a result of type R
type Job[R any] interface {
	Execute(ctx context.Context) R
}

// JobFunc adapts a function to the Job interface
type JobFunc[R any] func(ctx context.Context) R

// Execute calls f
func (f JobFunc[R]) Execute(ctx context.Context) R {
	return f(ctx)
}

// Pool manages a pool of workers that execute jobs concurrently.
// Results are collected as jobs finish, in completion order.
type Pool[R any] struct {
	workers    int
	jobQueue   chan Job[R]
	results    *ResultCollector[R]
	onResult   func(R)
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	mu         sync.RWMutex
	closed     bool
}

// NewPool creates a new worker pool with the specified number of workers.
// Cancelling ctx stops the workers.
func NewPool[R any](ctx context.Context, workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool[R]{
		workers:    workers,
		jobQueue:   make(chan Job[R], workers*2),
		results:    NewResultCollector[R](),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// OnResult registers a callback run on the worker goroutine after each job.
// Must be called before Start.
func (p *Pool[R]) OnResult(fn func(R)) {
	p.onResult = fn
}

// Start starts the worker pool
func (p *Pool[R]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker is the worker goroutine that processes jobs
func (p *Pool[R]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			p.results.Add(result)
			if p.onResult != nil {
				p.onResult(result)
			}
		}
	}
}

// Submit submits a job to the pool for execution. It returns false if the
// pool was shut down before the job was queued.
func (p *Pool[R]) Submit(job Job[R]) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- job:
		return true
	}
}

// Wait waits for all submitted jobs to complete and returns their results
func (p *Pool[R]) Wait() []R {
	p.closeQueue()
	p.wg.Wait()
	p.cancelFunc()
	return p.results.Results()
}

// Shutdown stops the workers without waiting for queued jobs
func (p *Pool[R]) Shutdown() {
	p.cancelFunc()
	p.closeQueue()
	p.wg.Wait()
}

func (p *Pool[R]) closeQueue() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.jobQueue)
	}
}

// ResultCollector provides a safer way to collect results as they arrive
type ResultCollector[R any] struct {
	results []R
	mu      sync.Mutex
}

// NewResultCollector creates a new result collector
func NewResultCollector[R any]() *ResultCollector[R] {
	return &ResultCollector[R]{
		results: make([]R, 0),
	}
}

// Add adds a result to the collector (thread-safe)
func (c *ResultCollector[R]) Add(result R) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
}

// Results returns a copy of all collected results
func (c *ResultCollector[R]) Results() []R {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]R, len(c.results))
	copy(out, c.results)
	return out
}
