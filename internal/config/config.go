// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New builds a Config holding every default.
// - Load layers an optional YAML file and WELLTEST_* environment variables on top.
// - Validate rejects values the service cannot run with.
package config

import (
	"fmt"
	"math"
	"runtime"

	"github.com/okian/welltest/internal/domain/detect"
	"github.com/okian/welltest/internal/domain/scoring"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataDir holds the pressure series CSV files, TruthDir the annotations
	// of the same name.
	DataDir  string `koanf:"data_dir"`
	TruthDir string `koanf:"truth_dir"`

	// OutputPath is where the batch runner writes its submission CSV.
	OutputPath string `koanf:"output_path"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submitted-file cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxWorstLimit caps GET /results/worst?limit.
	MaxWorstLimit int `koanf:"max_worst_limit"`

	// MaxUploadBytes caps the body of POST /detect.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// Detection holds the detector parameters.
	Detection detect.Params `koanf:"detection"`

	// Scoring holds the scorer settings.
	Scoring Scoring `koanf:"scoring"`
}

// Scoring configures interval scoring.
type Scoring struct {
	// TimeTolerance widens every interval on both sides before binarization.
	TimeTolerance float64 `koanf:"time_tolerance"`
	// MAEThreshold enables the positional pre-filter when set. Zero keeps
	// only exact matches.
	MAEThreshold *float64 `koanf:"mae_threshold"`
}

// Options converts the section into scorer options.
func (s Scoring) Options() []scoring.Option {
	opts := []scoring.Option{scoring.WithTimeTolerance(s.TimeTolerance)}
	if s.MAEThreshold != nil {
		opts = append(opts, scoring.WithMAEThreshold(*s.MAEThreshold))
	}
	return opts
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		DataDir:        "data",
		TruthDir:       "true_intervals",
		OutputPath:     "final_submission.csv",
		QueueSize:      10_000,
		WorkerCount:    runtime.NumCPU(),
		DedupeSize:     100_000,
		MaxWorstLimit:  100,
		MaxUploadBytes: 64 << 20,
		Detection:      detect.DefaultParams(),
		Scoring: Scoring{
			TimeTolerance: scoring.DefaultTimeTolerance,
		},
	}
}

// Validate reports the first setting the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	case c.MaxWorstLimit <= 0:
		return fmt.Errorf("%w: max_worst_limit must be positive", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case math.IsNaN(c.Scoring.TimeTolerance) || c.Scoring.TimeTolerance < 0:
		return fmt.Errorf("%w: scoring.time_tolerance must not be negative", ErrInvalidConfig)
	case c.Scoring.MAEThreshold != nil && (math.IsNaN(*c.Scoring.MAEThreshold) || *c.Scoring.MAEThreshold < 0):
		return fmt.Errorf("%w: scoring.mae_threshold must not be negative", ErrInvalidConfig)
	}
	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("%w: detection: %w", ErrInvalidConfig, err)
	}
	return nil
}
