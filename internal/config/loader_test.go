package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/okian/welltest/internal/config"
	"github.com/okian/welltest/internal/domain/detect"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
				convey.So(cfg.Detection, convey.ShouldResemble, detect.DefaultParams())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("WELLTEST_ADDR", ":8080")
			_ = os.Setenv("WELLTEST_QUEUE_SIZE", "500")
			_ = os.Setenv("WELLTEST_WORKER_COUNT", "16")
			_ = os.Setenv("WELLTEST_DETECTION__WINDOW_SIZE", "21")
			_ = os.Setenv("WELLTEST_DETECTION__THRESHOLD", "2.5")
			_ = os.Setenv("WELLTEST_SCORING__MAE_THRESHOLD", "0.3")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.Detection.WindowSize, convey.ShouldEqual, 21)
				convey.So(cfg.Detection.Threshold, convey.ShouldEqual, 2.5)
				convey.So(cfg.Detection.MinPoints, convey.ShouldEqual, detect.DefaultMinPoints)
				convey.So(cfg.Scoring.MAEThreshold, convey.ShouldNotBeNil)
				convey.So(*cfg.Scoring.MAEThreshold, convey.ShouldEqual, 0.3)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
log_format: json
data_dir: /srv/wells
detection:
  window_size: 15
  min_drop_duration: 3.5
  merge_overlaps: true
scoring:
  time_tolerance: 0.1
`)
			_ = os.Setenv("WELLTEST_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.DataDir, convey.ShouldEqual, "/srv/wells")
				convey.So(cfg.Detection.WindowSize, convey.ShouldEqual, 15)
				convey.So(cfg.Detection.MinDropDuration, convey.ShouldEqual, 3.5)
				convey.So(cfg.Detection.MergeOverlaps, convey.ShouldBeTrue)
				convey.So(cfg.Detection.PeakOffset, convey.ShouldEqual, detect.DefaultPeakOffset)
				convey.So(cfg.Scoring.TimeTolerance, convey.ShouldEqual, 0.1)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
worker_count: 24
detection:
  window_size: 15
`)
			_ = os.Setenv("WELLTEST_CONFIG", tmpFile)
			_ = os.Setenv("WELLTEST_WORKER_COUNT", "32")
			_ = os.Setenv("WELLTEST_DETECTION__WINDOW_SIZE", "9")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.Detection.WindowSize, convey.ShouldEqual, 9)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("WELLTEST_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("WELLTEST_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When env values are not numbers", func() {
			_ = os.Setenv("WELLTEST_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When env values fail validation", func() {
			_ = os.Setenv("WELLTEST_DETECTION__WINDOW_SIZE", "10")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return ErrInvalidConfig", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, v := range []string{
		"WELLTEST_CONFIG",
		"WELLTEST_ADDR",
		"WELLTEST_QUEUE_SIZE",
		"WELLTEST_WORKER_COUNT",
		"WELLTEST_DETECTION__WINDOW_SIZE",
		"WELLTEST_DETECTION__THRESHOLD",
		"WELLTEST_SCORING__MAE_THRESHOLD",
	} {
		_ = os.Unsetenv(v)
	}
}
