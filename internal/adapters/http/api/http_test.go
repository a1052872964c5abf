package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/welltest/internal/adapters/export"
	"github.com/okian/welltest/internal/adapters/http/api"
	"github.com/okian/welltest/internal/adapters/repository"
	service "github.com/okian/welltest/internal/app"
	"github.com/okian/welltest/internal/domain/detect"
	"github.com/okian/welltest/internal/domain/model"
	"github.com/okian/welltest/internal/synth"
	"github.com/okian/welltest/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockJobs stands in for the queue side of the service.
type mockJobs struct {
	err       error
	submitted []model.Job
}

func (m *mockJobs) Submit(ctx context.Context, job model.Job) (model.Job, error) {
	if m.err != nil {
		return job, m.err
	}
	job.ID = fmt.Sprintf("job-%d", len(m.submitted)+1)
	m.submitted = append(m.submitted, job)
	return job, nil
}

// deps uses a real service for detection, scoring and results and a mock for
// job submission.
type deps struct {
	*service.Service
	jobs *mockJobs
}

func (d deps) Submit(ctx context.Context, job model.Job) (model.Job, error) {
	return d.jobs.Submit(ctx, job)
}

func newMux(d deps, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(d, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func seriesCSV(t *testing.T) ([]byte, synth.Record) {
	t.Helper()
	rec, err := synth.Generate(synth.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := export.WriteSeries(&buf, rec.Series); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes(), rec
}

func TestDetectEndpoint(t *testing.T) {
	Convey("Given the API over a service", t, func() {
		d := deps{Service: service.New(), jobs: &mockJobs{}}
		mux := newMux(d)
		body, _ := seriesCSV(t)

		Convey("When posting a record", func() {
			w := do(mux, http.MethodPost, "/detect", body)

			Convey("Then both classes are returned with the parameters used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp struct {
					Recovery []model.Interval `json:"recovery"`
					Drawdown []model.Interval `json:"drop"`
					Padded   bool             `json:"padded"`
					Params   detect.Params    `json:"params"`
					Trace    *detect.Trace    `json:"trace"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Recovery, ShouldNotBeEmpty)
				So(resp.Drawdown, ShouldNotBeEmpty)
				So(resp.Padded, ShouldBeTrue)
				So(resp.Params, ShouldResemble, detect.DefaultParams())
				So(resp.Trace, ShouldBeNil)
			})
		})

		Convey("When overriding parameters and asking for a trace", func() {
			w := do(mux, http.MethodPost, "/detect?threshold=500&window_size=15&trace=1", body)

			Convey("Then the overrides apply and the trace is attached", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var resp struct {
					Recovery []model.Interval `json:"recovery"`
					Params   detect.Params    `json:"params"`
					Trace    *detect.Trace    `json:"trace"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Recovery, ShouldBeEmpty)
				So(resp.Params.WindowSize, ShouldEqual, 15)
				So(resp.Trace, ShouldNotBeNil)
				So(len(resp.Trace.Derivative), ShouldEqual, 1200)
			})
		})

		Convey("When a parameter is invalid", func() {
			w := do(mux, http.MethodPost, "/detect?window_size=10", body)

			Convey("Then 422 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(w.Body.String(), ShouldContainSubstring, "invalid_params")
			})
		})

		Convey("When a threshold is NaN", func() {
			w := do(mux, http.MethodPost, "/detect?threshold=NaN", body)

			Convey("Then 422 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(w.Body.String(), ShouldContainSubstring, "invalid_params")
			})
		})

		Convey("When a parameter does not parse", func() {
			w := do(mux, http.MethodPost, "/detect?threshold=abc", body)

			Convey("Then 422 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			})
		})

		Convey("When the window exceeds the record", func() {
			w := do(mux, http.MethodPost, "/detect", []byte("time,pressure\n0,1\n1,2\n2,3\n"))

			Convey("Then 422 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			})
		})

		Convey("When the body is not a record", func() {
			w := do(mux, http.MethodPost, "/detect", []byte("time,pressure\n0,1\nx,y\n"))

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body is too large", func() {
			small := newMux(d, api.WithMaxUploadBytes(64))
			w := do(small, http.MethodPost, "/detect", body)

			Convey("Then 413 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})

		Convey("When using the wrong method", func() {
			w := do(mux, http.MethodGet, "/detect", nil)

			Convey("Then 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestScoreEndpoint(t *testing.T) {
	Convey("Given the API over a service", t, func() {
		mux := newMux(deps{Service: service.New(), jobs: &mockJobs{}})
		tm := make([]float64, 101)
		for i := range tm {
			tm[i] = float64(i) * 0.25
		}

		Convey("When scoring identical lists", func() {
			body, _ := json.Marshal(map[string]any{
				"truth":     [][]float64{{5, 10}},
				"predicted": [][]float64{{5, 10}},
				"time":      tm,
			})
			w := do(mux, http.MethodPost, "/score", body)

			Convey("Then F1 is one", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"f1":1`)
			})
		})

		Convey("When the pre-filter drops every pair", func() {
			body, _ := json.Marshal(map[string]any{
				"truth":         [][]float64{{5, 10}},
				"predicted":     [][]float64{{15, 20}},
				"time":          tm,
				"tolerance":     0,
				"mae_threshold": 1,
			})
			w := do(mux, http.MethodPost, "/score", body)

			Convey("Then both lists are empty and F1 is one", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"f1":1`)
			})
		})

		Convey("When the pre-filter lists differ in length", func() {
			body, _ := json.Marshal(map[string]any{
				"truth":         [][]float64{{5, 10}},
				"predicted":     [][]float64{},
				"time":          tm,
				"mae_threshold": 1,
			})
			w := do(mux, http.MethodPost, "/score", body)

			Convey("Then 422 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
			})
		})

		Convey("When the request is invalid", func() {
			bodies := []string{
				`{`,
				`{"truth":[],"predicted":[]}`,
				`{"time":[0,1],"tolerance":-1}`,
				`{"time":[1,0]}`,
				`{"time":[0,1],"truth":[[1]]}`,
			}
			for _, body := range bodies {
				w := do(mux, http.MethodPost, "/score", []byte(body))
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})
	})
}

func TestJobsEndpoint(t *testing.T) {
	Convey("Given the API with a job submitter", t, func() {
		jobs := &mockJobs{}
		mux := newMux(deps{Service: service.New(), jobs: jobs})

		Convey("When submitting a file", func() {
			w := do(mux, http.MethodPost, "/jobs", []byte(`{"file":"well_1.csv"}`))

			Convey("Then it is accepted with a job id", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(w.Body.String(), ShouldContainSubstring, `"job_id":"job-1"`)
				So(jobs.submitted, ShouldHaveLength, 1)
			})
		})

		Convey("When the file name is a path", func() {
			w := do(mux, http.MethodPost, "/jobs", []byte(`{"file":"../etc/passwd"}`))

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(jobs.submitted, ShouldBeEmpty)
			})
		})

		Convey("When the submitter reports errors", func() {
			cases := []struct {
				err  error
				code int
			}{
				{service.ErrDuplicateJob, http.StatusConflict},
				{service.ErrQueueFull, http.StatusTooManyRequests},
				{service.ErrNotStarted, http.StatusServiceUnavailable},
				{errors.New("boom"), http.StatusInternalServerError},
			}
			for _, c := range cases {
				jobs.err = c.err
				w := do(mux, http.MethodPost, "/jobs", []byte(`{"file":"a.csv"}`))
				So(w.Code, ShouldEqual, c.code)
			}
		})
	})
}

func TestResultsEndpoints(t *testing.T) {
	Convey("Given a service holding analyses", t, func() {
		store := repository.NewMemoryStore()
		ctx := context.Background()
		So(store.Put(ctx, model.Analysis{File: "a.csv", F1Recovery: 0.9, F1Drawdown: 0.9, Scored: true}), ShouldBeNil)
		So(store.Put(ctx, model.Analysis{File: "b.csv", F1Recovery: 0.1, F1Drawdown: 0.3, Scored: true}), ShouldBeNil)
		So(store.Put(ctx, model.Analysis{File: "c.csv", F1Recovery: 0.5, F1Drawdown: 0.5, Scored: true}), ShouldBeNil)
		mux := newMux(deps{Service: service.New(service.WithStore(store)), jobs: &mockJobs{}}, api.WithMaxWorstLimit(10))

		Convey("When listing results", func() {
			w := do(mux, http.MethodGet, "/results", nil)
			var got []model.Analysis
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)

			Convey("Then all are returned by file", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(got, ShouldHaveLength, 3)
				So(got[0].File, ShouldEqual, "a.csv")
			})
		})

		Convey("When fetching one result", func() {
			w := do(mux, http.MethodGet, "/results/b.csv", nil)

			Convey("Then it is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"file":"b.csv"`)
			})
		})

		Convey("When fetching an unknown result", func() {
			w := do(mux, http.MethodGet, "/results/zzz.csv", nil)

			Convey("Then 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When asking for the worst results", func() {
			w := do(mux, http.MethodGet, "/results/worst?limit=2", nil)
			var got []model.Analysis
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)

			Convey("Then the lowest mean F1 comes first", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(got, ShouldHaveLength, 2)
				So(got[0].File, ShouldEqual, "b.csv")
				So(got[1].File, ShouldEqual, "c.csv")
			})
		})

		Convey("When the worst limit is invalid", func() {
			So(do(mux, http.MethodGet, "/results/worst?limit=0", nil).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/results/worst?limit=x", nil).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/results/worst?limit=11", nil).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When asking without a limit", func() {
			w := do(mux, http.MethodGet, "/results/worst", nil)

			Convey("Then the default applies", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the API", t, func() {
		mux := newMux(deps{Service: service.New(), jobs: &mockJobs{}})

		Convey("Then /healthz reports ok", func() {
			w := do(mux, http.MethodGet, "/healthz", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
		})

		Convey("Then /stats returns the service state", func() {
			w := do(mux, http.MethodGet, "/stats", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":false`)
		})

		Convey("Then /metrics exposes the registry", func() {
			do(mux, http.MethodGet, "/healthz", nil)
			w := do(mux, http.MethodGet, "/metrics", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.Contains(w.Body.String(), "welltest_analysis_http_requests_total"), ShouldBeTrue)
		})
	})
}

func TestKindErrors(t *testing.T) {
	Convey("Given a wrapped kind error", t, func() {
		cause := errors.New("cause")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)

		Convey("Then both kind and cause match", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: cause")
		})

		Convey("Then NewKind and Wrap format without missing parts", func() {
			So(api.NewKind("api.op", api.ErrNotFound).Error(), ShouldEqual, "api.op: not found")
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: cause")
			So(api.Wrap("api.op", nil), ShouldBeNil)
		})
	})
}
