// Package worker runs the asynchronous recompute pool: jobs come off the
// queue, one student's scores and role matches are recomputed per job.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/skillscope/internal/adapters/mq/queue"
	"github.com/okian/skillscope/pkg/logger"
	"github.com/okian/skillscope/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Recomputer recomputes one student's scores and cached role matches.
type Recomputer interface {
	Recompute(ctx context.Context, studentID string) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes recompute jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// inflight tracks students currently being recomputed so concurrent jobs
// for the same student collapse into one pass.
type inflight struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{ids: make(map[string]struct{})}
}

// acquire reports whether the caller now owns the student's recompute.
func (f *inflight) acquire(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.ids[id]; busy {
		return false
	}
	f.ids[id] = struct{}{}
	return true
}

func (f *inflight) release(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ids, id)
}

// InMemoryWorker implements Worker for processing recompute jobs.
type InMemoryWorker struct {
	queue      Queue
	recomputer Recomputer
	inflight   *inflight
	name       string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, recomputer Recomputer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		recomputer: recomputer,
		inflight:   newInflight(),
		name:       "worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobChan:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "recompute failed",
					logger.String("student_id", job.StudentID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob handles a single recompute job. The outcome is delivered on
// job.Done when the producer provided one; Done must be buffered.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	// A job already being recomputed elsewhere resolves to that pass.
	if !w.inflight.acquire(job.StudentID) {
		w.logger.Debug(ctx, "recompute already in flight, skipping",
			logger.String("student_id", job.StudentID))
		w.reply(job, nil)
		return nil
	}
	defer w.inflight.release(job.StudentID)

	err := w.recomputer.Recompute(ctx, job.StudentID)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "recompute_error")
		w.reply(job, err)
		return fmt.Errorf("recompute student %s: %w", job.StudentID, err)
	}

	w.reply(job, nil)
	return nil
}

func (w *InMemoryWorker) reply(job queue.Job, err error) {
	if job.Done == nil {
		return
	}
	select {
	case job.Done <- err:
	default:
		// Producer went away; dropping the reply is safe.
	}
}

// Pool manages multiple workers sharing one inflight set.
type Pool struct {
	workers []*InMemoryWorker

	shutdown chan struct{}
	logger   logger.Logger
	queue    Queue
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, recomputer Recomputer) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
		queue:    q,
	}

	shared := newInflight()
	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(q, recomputer, WithName("worker-"+strconv.Itoa(i)))
		w.inflight = shared
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals all workers and waits briefly for each.
func (p *Pool) Stop() {
	close(p.shutdown)
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and waits for workers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
