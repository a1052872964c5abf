package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a private registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"field": "north"}),
				WithPrometheusRegistry(registry),
			)
			m.jobsProcessed.Inc()

			Convey("Then collectors carry the namespace and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "test_unit_jobs_processed_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "north")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording detection outcomes", func() {
			before := testutil.ToFloat64(globalManager.detections.WithLabelValues("ok"))
			RecordDetection(3)
			RecordCandidates("recovery", "noise", 2)
			RecordCandidates("recovery", "noise", 0)
			RecordIntervals("drawdown", 4)

			Convey("Then counters advance", func() {
				So(testutil.ToFloat64(globalManager.detections.WithLabelValues("ok")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.candidates.WithLabelValues("recovery", "noise")), ShouldBeGreaterThanOrEqualTo, 2)
				So(testutil.ToFloat64(globalManager.intervals.WithLabelValues("drawdown")), ShouldBeGreaterThanOrEqualTo, 4)
			})
		})

		Convey("When updating gauges", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(10)
			UpdateWorkerCount(3)
			UpdateResultsTotal(12)

			Convey("Then they hold the latest value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 10)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.resultsTotal), ShouldEqual, 12)
			})
		})

		Convey("When the remaining helpers are called", func() {
			So(func() {
				RecordDetectionError()
				RecordPadded()
				RecordF1("recovery", 0.75)
				RecordJobProcessed(12)
				RecordJobFailed()
				RecordJobDuplicate()
				RecordQueueEnqueueError("full")
				RecordHTTPRequest("detect", "POST", "200", 4)
				RecordError("worker", "load")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(9)
			}, ShouldNotPanic)

			Convey("Then the registry exposes them", func() {
				n, err := testutil.GatherAndCount(GetRegistry(), "welltest_analysis_f1_score")
				So(err, ShouldBeNil)
				So(n, ShouldBeGreaterThan, 0)

				lint, err := testutil.GatherAndLint(GetRegistry())
				So(err, ShouldBeNil)
				for _, p := range lint {
					So(strings.Contains(p.Text, "counter"), ShouldBeFalse)
				}
			})
		})
	})
}
