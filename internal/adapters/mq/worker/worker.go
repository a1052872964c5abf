// Package worker runs analysis jobs taken off the queue and stores the results.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/welltest/internal/domain/model"
	"github.com/okian/welltest/pkg/logger"
	"github.com/okian/welltest/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job is what workers read off the queue.
type Job = model.Job

// Analyzer detects and scores the record a job refers to.
type Analyzer interface {
	Analyze(ctx context.Context, job Job) (model.Analysis, error)
}

// Updater stores a finished analysis.
type Updater interface {
	Put(ctx context.Context, a model.Analysis) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// NotifyFunc is called once per job after it finished, with the error that
// stopped it or nil.
type NotifyFunc func(ctx context.Context, job Job, err error)

// Worker processes jobs until its queue closes.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in flight.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	analyzer Analyzer
	updater  Updater
	name     string
	notify   NotifyFunc

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker.
func NewInMemoryWorker(queue Queue, analyzer Analyzer, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		analyzer: analyzer,
		updater:  updater,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
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

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "job failed",
					logger.String("job_id", job.ID),
					logger.String("file", job.File),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker and waits for it to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) processJob(ctx context.Context, job Job) (err error) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	defer func() {
		if err != nil {
			metrics.RecordJobFailed()
		} else {
			metrics.RecordJobProcessed(float64(time.Since(start).Microseconds()) / 1e3)
		}
		if w.notify != nil {
			w.notify(ctx, job, err)
		}
	}()

	a, err := w.analyzer.Analyze(ctx, job)
	if err != nil {
		metrics.RecordError("worker", "analyze")
		return fmt.Errorf("analyze %s: %w", job.File, err)
	}
	if a.JobID == "" {
		a.JobID = job.ID
	}

	if err := w.updater.Put(ctx, a); err != nil {
		metrics.RecordError("worker", "store")
		return fmt.Errorf("store %s: %w", job.File, err)
	}

	w.logger.Debug(ctx, "job done",
		logger.String("job_id", job.ID),
		logger.String("file", job.File),
		logger.Float64("f1_recovery", a.F1Recovery),
		logger.Float64("f1_drop", a.F1Drawdown),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. opts apply to every worker; each worker is
// additionally named after its index. A non-positive count means one worker
// per CPU.
func NewPool(workerCount int, queue Queue, analyzer Analyzer, updater Updater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append(append([]Option{}, opts...), WithName("worker-"+strconv.Itoa(i)))
		p.workers[i] = NewInMemoryWorker(queue, analyzer, updater, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and lets the workers drain what is queued. Workers
// still busy when ctx (or the pool timeout) expires are stopped after their
// current job.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			timedOut = true
		}
		if timedOut {
			break
		}
	}

	if timedOut {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
		defer stopCancel()
		for _, w := range p.workers {
			_ = w.Shutdown(stopCtx)
		}
	}

	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool drain: %w", shutdownCtx.Err())
	}
	return nil
}
