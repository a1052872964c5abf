package loadtest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/welltest/pkg/logger"
)

// Run executes the complete load test and returns its statistics.
func Run(ctx context.Context, config *Config) (Stats, error) {
	stats := Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting welltest load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("records", config.Records),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Float64("minF1", config.MinF1))

	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	recs, bodies, err := generateRecords(ctx, config, &stats)
	if err != nil {
		return stats, fmt.Errorf("record generation failed: %w", err)
	}

	dets := submitRecords(ctx, config, bodies, &stats)
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	scores, err := scoreDetections(ctx, config, recs, dets)
	if err != nil {
		return stats, fmt.Errorf("scoring failed: %w", err)
	}

	if err := verifyResults(ctx, config, scores, &stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, &stats)

	logger.Get().Info(ctx, "load test completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := newHTTPClient(config.Timeout).Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, recordsPerSecond float64
	if stats.DetectSubmitted > 0 {
		successRate = float64(stats.DetectSuccessful) / float64(stats.DetectSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		recordsPerSecond = float64(stats.DetectSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("recordsGenerated", stats.RecordsGenerated),
		logger.Int("detectSubmitted", stats.DetectSubmitted),
		logger.Int("detectSuccessful", stats.DetectSuccessful),
		logger.Int("detectFailed", stats.DetectFailed),
		logger.Int("scored", stats.Scored),
		logger.Float64("meanF1Recovery", stats.MeanRecovery),
		logger.Float64("meanF1Drop", stats.MeanDrawdown),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("recordsPerSecond", recordsPerSecond))
}
