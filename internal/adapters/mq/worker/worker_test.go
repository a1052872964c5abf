package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/welltest/internal/adapters/mq/queue"
	worker "github.com/okian/welltest/internal/adapters/mq/worker"
	model "github.com/okian/welltest/internal/domain/model"
	logging "github.com/okian/welltest/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockAnalyzer struct {
	mu     sync.Mutex
	errors map[string]error
	delay  time.Duration
}

func newMockAnalyzer() *mockAnalyzer {
	return &mockAnalyzer{errors: make(map[string]error)}
}

func (m *mockAnalyzer) Analyze(ctx context.Context, job model.Job) (model.Analysis, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.errors[job.File]; ok {
		return model.Analysis{}, err
	}
	return model.Analysis{File: job.File, F1Recovery: 1, F1Drawdown: 0.5, Scored: true}, nil
}

func (m *mockAnalyzer) setError(file string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[file] = err
}

type mockUpdater struct {
	mu      sync.Mutex
	results map[string]model.Analysis
	err     error
}

func newMockUpdater() *mockUpdater {
	return &mockUpdater{results: make(map[string]model.Analysis)}
}

func (m *mockUpdater) Put(ctx context.Context, a model.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.results[a.File] = a
	return nil
}

func (m *mockUpdater) get(file string) (model.Analysis, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.results[file]
	return a, ok
}

func (m *mockUpdater) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.results)
}

type recorder struct {
	mu   sync.Mutex
	errs map[string]error
	wg   sync.WaitGroup
}

func newRecorder(expected int) *recorder {
	r := &recorder{errs: make(map[string]error)}
	r.wg.Add(expected)
	return r
}

func (r *recorder) notify(_ context.Context, job model.Job, err error) {
	r.mu.Lock()
	r.errs[job.File] = err
	r.mu.Unlock()
	r.wg.Done()
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	done := make(chan struct{})
	go func() { r.wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("jobs did not finish")
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker on a queue", t, func() {
		_ = logging.Init()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		analyzer := newMockAnalyzer()
		updater := newMockUpdater()

		convey.Convey("When a job succeeds", func() {
			rec := newRecorder(1)
			w := worker.NewInMemoryWorker(q, analyzer, updater,
				worker.WithName("test-worker"), worker.WithNotify(rec.notify))
			go w.Run(ctx)

			q.Enqueue(ctx, model.Job{ID: "job-1", File: "well_1.csv"})
			rec.wait(t)

			convey.Convey("Then the analysis is stored with the job id", func() {
				a, ok := updater.get("well_1.csv")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(a.JobID, convey.ShouldEqual, "job-1")
				convey.So(rec.errs["well_1.csv"], convey.ShouldBeNil)
			})
		})

		convey.Convey("When analysis fails", func() {
			rec := newRecorder(1)
			analyzer.setError("bad.csv", errors.New("malformed"))
			w := worker.NewInMemoryWorker(q, analyzer, updater, worker.WithNotify(rec.notify))
			go w.Run(ctx)

			q.Enqueue(ctx, model.Job{ID: "job-2", File: "bad.csv"})
			rec.wait(t)

			convey.Convey("Then nothing is stored and the error is reported", func() {
				_, ok := updater.get("bad.csv")
				convey.So(ok, convey.ShouldBeFalse)
				convey.So(rec.errs["bad.csv"], convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When storing fails", func() {
			rec := newRecorder(1)
			updater.err = errors.New("disk full")
			w := worker.NewInMemoryWorker(q, analyzer, updater, worker.WithNotify(rec.notify))
			go w.Run(ctx)

			q.Enqueue(ctx, model.Job{ID: "job-3", File: "well_3.csv"})
			rec.wait(t)

			convey.Convey("Then the error wraps the store failure", func() {
				convey.So(rec.errs["well_3.csv"].Error(), convey.ShouldContainSubstring, "disk full")
			})
		})

		convey.Convey("When shut down while idle", func() {
			w := worker.NewInMemoryWorker(q, analyzer, updater)
			go w.Run(ctx)

			sctx, scancel := context.WithTimeout(ctx, time.Second)
			defer scancel()

			convey.Convey("Then it returns promptly", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the queue closes", func() {
			w := worker.NewInMemoryWorker(q, analyzer, updater)
			go w.Run(ctx)
			_ = q.Close()

			convey.Convey("Then the worker exits", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					t.Fatal("worker did not exit")
				}
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of four workers", t, func() {
		_ = logging.Init()
		ctx := context.Background()

		const jobs = 40
		q := queue.NewInMemoryQueue(queue.WithCapacity(jobs))
		analyzer := newMockAnalyzer()
		analyzer.delay = time.Millisecond
		updater := newMockUpdater()
		rec := newRecorder(jobs)

		pool := worker.NewPool(4, q, analyzer, updater, worker.WithNotify(rec.notify))
		convey.So(pool.Size(), convey.ShouldEqual, 4)
		pool.Start(ctx)

		for i := 0; i < jobs; i++ {
			convey.So(q.Enqueue(ctx, model.Job{ID: fmt.Sprint(i), File: fmt.Sprintf("f%02d.csv", i)}), convey.ShouldBeTrue)
		}

		convey.Convey("When every job has been processed", func() {
			rec.wait(t)

			convey.Convey("Then every result is stored and shutdown drains cleanly", func() {
				convey.So(updater.count(), convey.ShouldEqual, jobs)
				convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a pool created with a non-positive count", t, func() {
		_ = logging.Init()
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(0, q, newMockAnalyzer(), newMockUpdater())

		convey.Convey("Then it falls back to at least one worker", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
