package loadtest_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/welltest/internal/adapters/http/api"
	service "github.com/okian/welltest/internal/app"
	"github.com/okian/welltest/internal/loadtest"
	"github.com/okian/welltest/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func newService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	api.NewServer(service.New()).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv := newService(t)
		cfg := &loadtest.Config{
			BaseURL: srv.URL,
			Records: 6,
			Seed:    3,
			Workers: 3,
			Timeout: 10 * time.Second,
		}

		Convey("When the load test runs", func() {
			stats, err := loadtest.Run(context.Background(), cfg)

			Convey("Then every record is detected and scored", func() {
				So(err, ShouldBeNil)
				So(stats.RecordsGenerated, ShouldEqual, 6)
				So(stats.DetectSubmitted, ShouldEqual, 6)
				So(stats.DetectSuccessful, ShouldEqual, 6)
				So(stats.DetectFailed, ShouldEqual, 0)
				So(stats.Scored, ShouldEqual, 6)
				So(stats.MeanRecovery, ShouldBeGreaterThan, 0)
				So(stats.MeanDrawdown, ShouldBeGreaterThan, 0)
				So(stats.Duration, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the required F1 cannot be met", func() {
			cfg.MinF1 = 1.01
			_, err := loadtest.Run(context.Background(), cfg)

			Convey("Then verification fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "result verification failed")
			})
		})
	})

	Convey("Given a service that is not reachable", t, func() {
		srv := newService(t)
		url := srv.URL
		srv.Close()

		Convey("Then the health check fails", func() {
			_, err := loadtest.Run(context.Background(), &loadtest.Config{
				BaseURL: url, Records: 1, Workers: 1, Timeout: time.Second,
			})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})
}
