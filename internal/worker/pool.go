// Package worker runs independent page jobs in a bounded pool and paces
// requests per portal host.
package worker

import (
	"cmp"
	"context"
	"slices"
	"sync"
)

// Job is one unit of work, usually one snapshot or URL
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job produced
type Result interface {
	GetError() error
}

type queued struct {
	seq int
	job Job
}

type finished struct {
	seq    int
	result Result
}

// Pool runs jobs on a fixed number of goroutines. Wait returns results in
// submission order whatever order the jobs finish in.
type Pool struct {
	workers    int
	jobQueue   chan queued
	results    chan finished
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once

	mu        sync.Mutex
	submitted int
	done      []finished
	collected chan struct{}
}

// NewPool creates a pool bound to parent; cancelling parent stops the workers
func NewPool(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if parent == nil {
		parent = context.Background()
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan queued, workers*2),
		results:    make(chan finished, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
		collected:  make(chan struct{}),
	}
}

// Start launches the workers and the result collector
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go p.collect()
}

// collect drains results as they arrive so a slow Wait never stalls workers
func (p *Pool) collect() {
	defer close(p.collected)
	for f := range p.results {
		p.done = append(p.done, f)
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case q, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := q.job.Execute(p.ctx)
			select {
			case p.results <- finished{seq: q.seq, result: result}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. It blocks while the queue is full and drops the job
// once the pool is shut down.
func (p *Pool) Submit(job Job) {
	p.mu.Lock()
	seq := p.submitted
	p.submitted++
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- queued{seq: seq, job: job}:
	}
}

// Wait closes the queue, waits for the workers, and returns every result
// in submission order. Jobs dropped by a shutdown have no result.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	<-p.collected

	done := p.done
	slices.SortFunc(done, func(a, b finished) int { return cmp.Compare(a.seq, b.seq) })

	results := make([]Result, len(done))
	for i, f := range done {
		results[i] = f.result
	}
	return results
}

// Shutdown stops the pool without waiting for queued jobs
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

// Done is closed once every result has been collected
func (p *Pool) Done() <-chan struct{} {
	return p.collected
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
