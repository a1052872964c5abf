package loadtest

import (
	"bytes"
	"context"
	"fmt"

	"github.com/okian/welltest/internal/adapters/export"
	"github.com/okian/welltest/internal/synth"
	"github.com/okian/welltest/pkg/logger"
)

// recordJitter shifts planted events between records.
const recordJitter = 40

// generateRecords builds the synthetic records and their CSV bodies.
func generateRecords(ctx context.Context, config *Config, stats *Stats) ([]synth.Record, [][]byte, error) {
	logger.Get().Info(ctx, "generating records", logger.Int("records", config.Records))

	base := synth.DefaultConfig()
	base.Seed = config.Seed
	recs, err := synth.Batch(base, config.Records, recordJitter)
	if err != nil {
		return nil, nil, err
	}

	bodies := make([][]byte, len(recs))
	for i, r := range recs {
		if err := ctx.Err(); err != nil {
			return nil, nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		var buf bytes.Buffer
		if err := export.WriteSeries(&buf, r.Series); err != nil {
			return nil, nil, fmt.Errorf("failed to encode record %d: %w", i, err)
		}
		bodies[i] = buf.Bytes()
	}

	stats.RecordsGenerated = len(recs)
	logger.Get().Info(ctx, "generated records successfully", logger.Int("count", len(recs)))
	return recs, bodies, nil
}
