// Package service wires detection, scoring, the job queue and the result
// store into the operations the HTTP API and the batch runner use.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/welltest/internal/adapters/mq/queue"
	"github.com/okian/welltest/internal/adapters/mq/worker"
	"github.com/okian/welltest/internal/adapters/repository"
	"github.com/okian/welltest/internal/domain/dedupe"
	"github.com/okian/welltest/internal/domain/detect"
	"github.com/okian/welltest/internal/domain/model"
	"github.com/okian/welltest/internal/domain/scoring"
	"github.com/okian/welltest/pkg/logger"
	"github.com/okian/welltest/pkg/metrics"
)

const stopTimeout = 30 * time.Second

// Source lists and loads records by name.
type Source interface {
	List() ([]string, error)
	Load(name string) (model.Input, error)
}

// Failure names a record whose job returned an error.
type Failure struct {
	File string `json:"file"`
	Err  string `json:"error"`
}

// Report summarises one AnalyzeDir run.
type Report struct {
	Files    int                 `json:"files"`
	Analyzed int                 `json:"analyzed"`
	Skipped  int                 `json:"skipped"`
	Failures []Failure           `json:"failures,omitempty"`
	Averages repository.Averages `json:"averages"`
}

// Service implements the analysis operations.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	source  Source

	params    detect.Params
	scoreOpts []scoring.Option

	workerCount int
	queueSize   int
	dedupeSize  int

	waitMu  sync.Mutex
	waiters map[string]chan error

	started bool
	logger  logger.Logger
}

// New constructs a Service. Detection, scoring and synchronous analysis work
// right away; queued jobs need Start.
func New(opts ...Option) *Service {
	s := &Service{
		params:      detect.DefaultParams(),
		workerCount: runtime.NumCPU(),
		queueSize:   10_000,
		dedupeSize:  100_000,
		waiters:     make(map[string]chan error),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start creates the queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.params.Validate(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, jobAnalyzer{s: s}, s.store,
		worker.WithNotify(s.jobDone))
	s.pool.Start(ctx)
	s.started = true

	s.logger.Info(ctx, "analysis service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains queued jobs and stops the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}

	s.waitMu.Lock()
	for id, ch := range s.waiters {
		ch <- ErrNotStarted
		delete(s.waiters, id)
	}
	s.waitMu.Unlock()

	s.started = false
	s.logger.Info(ctx, "analysis service stopped")
}

// Params returns the default detector parameters.
func (s *Service) Params() detect.Params {
	return s.params
}

// Detect runs the detector on series with p and records detection metrics.
func (s *Service) Detect(ctx context.Context, series model.Series, p detect.Params) (detect.Result, error) {
	start := time.Now()
	res, err := detect.Detect(series, p)
	if err != nil {
		metrics.RecordDetectionError()
		return detect.Result{}, err
	}
	metrics.RecordDetection(float64(time.Since(start).Microseconds()) / 1e3)
	recordStats(string(model.Recovery), res.Stats.Recovery, len(res.Recovery))
	recordStats(string(model.Drawdown), res.Stats.Drawdown, len(res.Drawdown))
	if res.Padded {
		metrics.RecordPadded()
	}
	return res, nil
}

func recordStats(kind string, ks detect.KindStats, emitted int) {
	metrics.RecordCandidates(kind, "accepted", ks.Accepted)
	metrics.RecordCandidates(kind, string(detect.ReasonOutOfRange), ks.OutOfRange)
	metrics.RecordCandidates(kind, string(detect.ReasonDensity), ks.Density)
	metrics.RecordCandidates(kind, string(detect.ReasonNoise), ks.Noise)
	metrics.RecordCandidates(kind, string(detect.ReasonDuration), ks.Duration)
	metrics.RecordIntervals(kind, emitted)
}

// Trace returns the smoothed pressure and its derivative for plotting.
func (s *Service) Trace(ctx context.Context, series model.Series, p detect.Params) (detect.Trace, error) {
	return detect.Differentiate(series, p)
}

// Score compares predicted with truth over series. opts are applied after
// the service defaults.
func (s *Service) Score(ctx context.Context, truth, predicted []model.Interval, series model.Series, opts ...scoring.Option) (float64, error) {
	all := make([]scoring.Option, 0, len(s.scoreOpts)+len(opts))
	all = append(all, s.scoreOpts...)
	all = append(all, opts...)
	return scoring.Score(truth, predicted, series, all...)
}

// Analyze detects and, when truth is given, scores one record synchronously
// and stores the result.
func (s *Service) Analyze(ctx context.Context, name string, series model.Series, truth *model.Truth) (model.Analysis, error) {
	a, err := s.analyze(ctx, name, model.Input{Series: series, Truth: truth})
	if err != nil {
		return model.Analysis{}, err
	}
	if err := s.store.Put(ctx, a); err != nil {
		return model.Analysis{}, err
	}
	return a, nil
}

func (s *Service) analyze(ctx context.Context, name string, in model.Input) (model.Analysis, error) {
	res, err := s.Detect(ctx, in.Series, s.params)
	if err != nil {
		return model.Analysis{}, fmt.Errorf("detect %s: %w", name, err)
	}
	a := model.Analysis{
		File:     name,
		Recovery: res.Recovery,
		Drawdown: res.Drawdown,
		Samples:  in.Series.Len(),
		Padded:   res.Padded,
	}

	if in.Truth != nil {
		// Detected and annotated lists are not positionally paired.
		unpaired := scoring.WithSkipUnpaired()
		if a.F1Recovery, err = s.Score(ctx, in.Truth.Recovery, res.Recovery, in.Series, unpaired); err != nil {
			return model.Analysis{}, fmt.Errorf("score %s recovery: %w", name, err)
		}
		if a.F1Drawdown, err = s.Score(ctx, in.Truth.Drawdown, res.Drawdown, in.Series, unpaired); err != nil {
			return model.Analysis{}, fmt.Errorf("score %s drop: %w", name, err)
		}
		a.Scored = true
		metrics.RecordF1(string(model.Recovery), a.F1Recovery)
		metrics.RecordF1(string(model.Drawdown), a.F1Drawdown)
	}

	a.CompletedAt = time.Now().UTC()
	return a, nil
}

// jobAnalyzer adapts the Service to worker.Analyzer, loading records that
// were queued by name only.
type jobAnalyzer struct {
	s *Service
}

func (j jobAnalyzer) Analyze(ctx context.Context, job model.Job) (model.Analysis, error) {
	in := job.Input
	if in == nil {
		if j.s.source == nil {
			return model.Analysis{}, ErrNoSource
		}
		loaded, err := j.s.source.Load(job.File)
		if err != nil {
			return model.Analysis{}, err
		}
		in = &loaded
	}
	a, err := j.s.analyze(ctx, job.File, *in)
	if err != nil {
		return model.Analysis{}, err
	}
	a.JobID = job.ID
	return a, nil
}

func (s *Service) jobDone(ctx context.Context, job model.Job, err error) {
	s.deduper.Unrecord(ctx, job.File)

	s.waitMu.Lock()
	ch, ok := s.waiters[job.ID]
	delete(s.waiters, job.ID)
	s.waitMu.Unlock()
	if ok {
		ch <- err
	}
}

// Submit queues job for asynchronous analysis. A missing ID is filled with a
// new uuid. A file that is still queued or running is refused with
// ErrDuplicateJob.
func (s *Service) Submit(ctx context.Context, job model.Job) (model.Job, error) {
	job, _, err := s.submit(ctx, job, false)
	return job, err
}

func (s *Service) submit(ctx context.Context, job model.Job, wait bool) (model.Job, <-chan error, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return job, nil, ErrNotStarted
	}
	if job.File == "" {
		return job, nil, fmt.Errorf("%w: job has no file", model.ErrConfiguration)
	}
	if job.Input == nil && s.source == nil {
		return job, nil, ErrNoSource
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.TS.IsZero() {
		job.TS = time.Now().UTC()
	}

	if s.deduper.SeenAndRecord(ctx, job.File) {
		metrics.RecordJobDuplicate()
		return job, nil, fmt.Errorf("%w: %s", ErrDuplicateJob, job.File)
	}

	var done chan error
	if wait {
		done = make(chan error, 1)
		s.waitMu.Lock()
		s.waiters[job.ID] = done
		s.waitMu.Unlock()
	}

	if !s.queue.Enqueue(ctx, job) {
		s.deduper.Unrecord(ctx, job.File)
		if wait {
			s.waitMu.Lock()
			delete(s.waiters, job.ID)
			s.waitMu.Unlock()
		}
		return job, nil, ErrQueueFull
	}
	return job, done, nil
}

// AnalyzeDir queues every record of the source, waits for all of them and
// returns a summary. Individual failures are collected in the report; only
// setup errors and ctx cancellation abort the run.
func (s *Service) AnalyzeDir(ctx context.Context) (Report, error) {
	if s.source == nil {
		return Report{}, ErrNoSource
	}
	names, err := s.source.List()
	if err != nil {
		return Report{}, err
	}

	report := Report{Files: len(names)}
	type pending struct {
		file string
		done <-chan error
	}
	var inflight []pending

	collectOldest := func() error {
		p := inflight[0]
		inflight = inflight[1:]
		select {
		case err := <-p.done:
			if err != nil {
				report.Failures = append(report.Failures, Failure{File: p.file, Err: err.Error()})
			} else {
				report.Analyzed++
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for _, name := range names {
		for {
			if len(inflight) >= s.queueSize {
				if err := collectOldest(); err != nil {
					return report, err
				}
			}
			_, done, err := s.submit(ctx, model.Job{File: name}, true)
			switch {
			case err == nil:
				inflight = append(inflight, pending{file: name, done: done})
			case errors.Is(err, ErrDuplicateJob):
				report.Skipped++
			case errors.Is(err, ErrQueueFull) && len(inflight) > 0:
				if err := collectOldest(); err != nil {
					return report, err
				}
				continue
			default:
				return report, err
			}
			break
		}
	}
	for len(inflight) > 0 {
		if err := collectOldest(); err != nil {
			return report, err
		}
	}

	report.Averages = s.store.Averages(ctx)
	s.logger.Info(ctx, "directory analysed",
		logger.Int("files", report.Files),
		logger.Int("analyzed", report.Analyzed),
		logger.Int("failed", len(report.Failures)),
		logger.Float64("f1_recovery", report.Averages.Recovery),
		logger.Float64("f1_drop", report.Averages.Drawdown),
	)
	return report, nil
}

// Results returns every stored analysis ordered by file.
func (s *Service) Results(ctx context.Context) []model.Analysis {
	return s.store.All(ctx)
}

// Result returns the stored analysis of file.
func (s *Service) Result(ctx context.Context, file string) (model.Analysis, error) {
	return s.store.Get(ctx, file)
}

// Worst returns the n scored results with the lowest mean F1.
func (s *Service) Worst(ctx context.Context, n int) ([]model.Analysis, error) {
	return s.store.Worst(ctx, n)
}

// Averages returns the per-class mean F1 over stored results.
func (s *Service) Averages(ctx context.Context) repository.Averages {
	return s.store.Averages(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"results":     s.store.Count(ctx),
		"averages":    s.store.Averages(ctx),
		"params":      s.params,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["inFlight"] = s.deduper.Size()
	}
	return stats
}
