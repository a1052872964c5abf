package loadtest

import (
	"time"

	"github.com/okian/welltest/internal/domain/model"
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL string        // Base URL of the service
	Records int           // Number of synthetic records to generate
	Seed    uint64        // Seed of the first record
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	MinF1   float64       // Mean F1 below which the run fails; 0 disables the check
	Verbose bool          // Log every failed request
}

// Detection is the /detect answer for one generated record.
type Detection struct {
	Index    int              `json:"-"`
	Recovery []model.Interval `json:"recovery"`
	Drawdown []model.Interval `json:"drop"`
	Padded   bool             `json:"padded"`
	Samples  int              `json:"samples"`
}

// Score is the F1 of one record per class.
type Score struct {
	Index    int
	Recovery float64
	Drawdown float64
}

// Mean averages both classes.
func (s Score) Mean() float64 { return (s.Recovery + s.Drawdown) / 2 }

// Stats holds run statistics.
type Stats struct {
	RecordsGenerated int
	DetectSubmitted  int
	DetectSuccessful int
	DetectFailed     int
	Scored           int
	MeanRecovery     float64
	MeanDrawdown     float64
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
