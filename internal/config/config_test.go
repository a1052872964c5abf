package config_test

import (
	"errors"
	"math"
	"runtime"
	"testing"

	"github.com/okian/welltest/internal/config"
	"github.com/okian/welltest/internal/domain/detect"
	"github.com/okian/welltest/internal/domain/model"
	"github.com/okian/welltest/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 100_000)
			convey.So(cfg.Detection, convey.ShouldResemble, detect.DefaultParams())
			convey.So(cfg.Scoring.TimeTolerance, convey.ShouldEqual, scoring.DefaultTimeTolerance)
			convey.So(cfg.Scoring.MAEThreshold, convey.ShouldBeNil)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then scoring options enable the pre-filter only when set", func() {
			convey.So(cfg.Scoring.Options(), convey.ShouldHaveLength, 1)
			cfg.Scoring.MAEThreshold = ptr(0.5)
			convey.So(cfg.Scoring.Options(), convey.ShouldHaveLength, 2)
		})

		convey.Convey("Then a zero MAE threshold still enables the pre-filter", func() {
			cfg.Scoring.MAEThreshold = ptr(0)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.Scoring.Options(), convey.ShouldHaveLength, 2)

			truth := []model.Interval{{Start: 0, End: 10}}
			off := []model.Interval{{Start: 5, End: 15}}
			s := model.Series{Time: []float64{0, 5, 10, 15, 20}, Pressure: []float64{1, 1, 1, 1, 1}}
			f1, err := scoring.Score(truth, off, s, cfg.Scoring.Options()...)
			convey.So(err, convey.ShouldBeNil)
			convey.So(f1, convey.ShouldEqual, 1)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":         func(c *config.Config) { c.Addr = "" },
			"unknown log format": func(c *config.Config) { c.LogFormat = "xml" },
			"zero queue":         func(c *config.Config) { c.QueueSize = 0 },
			"zero workers":       func(c *config.Config) { c.WorkerCount = 0 },
			"negative dedupe":    func(c *config.Config) { c.DedupeSize = -1 },
			"zero worst limit":   func(c *config.Config) { c.MaxWorstLimit = 0 },
			"zero upload":        func(c *config.Config) { c.MaxUploadBytes = 0 },
			"negative tolerance": func(c *config.Config) { c.Scoring.TimeTolerance = -1 },
			"negative mae":       func(c *config.Config) { c.Scoring.MAEThreshold = ptr(-0.1) },
			"NaN mae":            func(c *config.Config) { c.Scoring.MAEThreshold = ptr(math.NaN()) },
			"NaN tolerance":      func(c *config.Config) { c.Scoring.TimeTolerance = math.NaN() },
			"even window":        func(c *config.Config) { c.Detection.WindowSize = 10 },
		}

		for name, mutate := range cases {
			convey.Convey("When "+name, func() {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}

func ptr(v float64) *float64 { return &v }
