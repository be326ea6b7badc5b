// Package coordination implements §4.7: the processed_runs claim
// protocol plus a worker pool that drains the chunk/embed backlog and
// a cron-scheduled stale-claim recovery sweep.
package coordination

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"
)

// Job is one unit of work submitted to a Pool.
type Job func(ctx context.Context) error

// Pool runs up to maxWorkers jobs concurrently, collecting errors
// rather than aborting on the first failure — a single run's claim
// failing must never take down the rest of the backlog.
type Pool struct {
	jobs       chan Job
	maxWorkers int
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	errors     []error
	errorsMu   sync.Mutex
	logger     arbor.ILogger
}

// NewPool returns a Pool bound to ctx with maxWorkers goroutines
// (default 4 if non-positive).
func NewPool(ctx context.Context, maxWorkers int, logger arbor.ILogger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &Pool{
		jobs:       make(chan Job, maxWorkers*2),
		maxWorkers: maxWorkers,
		ctx:        poolCtx,
		cancel:     cancel,
		logger:     logger,
	}
}

// Start spins up the worker goroutines.
func (p *Pool) Start() {
	p.logger.Info().Int("max_workers", p.maxWorkers).Msg("coordination: starting worker pool")
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit enqueues job, blocking until a slot is free or the pool is
// shutting down.
func (p *Pool) Submit(job Job) bool {
	select {
	case p.jobs <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Wait closes the queue and blocks until every submitted job has run.
func (p *Pool) Wait() {
	close(p.jobs)
	p.wg.Wait()
}

// Shutdown cancels outstanding work and waits for workers to drain.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// Errors returns every job error collected so far.
func (p *Pool) Errors() []error {
	p.errorsMu.Lock()
	defer p.errorsMu.Unlock()
	out := make([]error, len(p.errors))
	copy(out, p.errors)
	return out
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if err := job(p.ctx); err != nil {
				p.errorsMu.Lock()
				p.errors = append(p.errors, err)
				p.errorsMu.Unlock()
				p.logger.Error().Err(err).Int("worker_id", id).Msg("coordination: job failed")
			}
		case <-p.ctx.Done():
			return
		}
	}
}
