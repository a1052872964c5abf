package loadtest

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/welltest/internal/domain/model"
	"github.com/okian/welltest/internal/synth"
	"github.com/okian/welltest/pkg/logger"
)

type scoreRequest struct {
	Truth     []model.Interval `json:"truth"`
	Predicted []model.Interval `json:"predicted"`
	Time      []float64        `json:"time"`
}

type scoreResponse struct {
	F1 float64 `json:"f1"`
}

// scoreDetections asks /score for both classes of every successful detection.
func scoreDetections(ctx context.Context, config *Config, recs []synth.Record, dets []*Detection) ([]Score, error) {
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/score"

	scores := make([]Score, 0, len(dets))
	for _, det := range dets {
		if det == nil {
			continue
		}
		rec := recs[det.Index]
		s := Score{Index: det.Index}

		var resp scoreResponse
		req := scoreRequest{Truth: rec.Truth.Recovery, Predicted: det.Recovery, Time: rec.Series.Time}
		if err := client.PostJSON(ctx, url, req, &resp); err != nil {
			return nil, fmt.Errorf("score record %d recovery: %w", det.Index, err)
		}
		s.Recovery = resp.F1

		req = scoreRequest{Truth: rec.Truth.Drawdown, Predicted: det.Drawdown, Time: rec.Series.Time}
		if err := client.PostJSON(ctx, url, req, &resp); err != nil {
			return nil, fmt.Errorf("score record %d drop: %w", det.Index, err)
		}
		s.Drawdown = resp.F1
		scores = append(scores, s)
	}
	return scores, nil
}

// verifyResults aggregates the scores and enforces MinF1.
func verifyResults(ctx context.Context, config *Config, scores []Score, stats *Stats) error {
	if len(scores) == 0 {
		return fmt.Errorf("no detections to verify")
	}

	var rec, drop float64
	for _, s := range scores {
		rec += s.Recovery
		drop += s.Drawdown
	}
	stats.Scored = len(scores)
	stats.MeanRecovery = rec / float64(len(scores))
	stats.MeanDrawdown = drop / float64(len(scores))

	displayWorst(ctx, scores)

	mean := (stats.MeanRecovery + stats.MeanDrawdown) / 2
	if config.MinF1 > 0 && mean < config.MinF1 {
		return fmt.Errorf("mean F1 %.4f below %.4f", mean, config.MinF1)
	}
	logger.Get().Info(ctx, "result verification completed", logger.Float64("meanF1", mean))
	return nil
}

func displayWorst(ctx context.Context, scores []Score) {
	sorted := make([]Score, len(scores))
	copy(sorted, scores)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Mean() != sorted[j].Mean() {
			return sorted[i].Mean() < sorted[j].Mean()
		}
		return sorted[i].Index < sorted[j].Index
	})

	n := min(worstShown, len(sorted))
	for i := 0; i < n; i++ {
		s := sorted[i]
		logger.Get().Info(ctx, "worst record",
			logger.Int("rank", i+1),
			logger.String("file", synth.FileName(s.Index)),
			logger.Float64("f1Recovery", s.Recovery),
			logger.Float64("f1Drop", s.Drawdown))
	}
}
