// Command synth writes synthetic well-test records and their annotations.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/okian/welltest/internal/synth"
)

const (
	defaultCount  = 20
	defaultJitter = 40
)

func main() {
	var (
		dataDir  = flag.String("data", "data", "Directory for record CSVs")
		truthDir = flag.String("truth", "true_intervals", "Directory for annotation CSVs")
		count    = flag.Int("n", defaultCount, "Number of records")
		jitter   = flag.Int("jitter", defaultJitter, "Maximum event shift in samples between records")
		seed     = flag.Uint64("seed", synth.DefaultConfig().Seed, "Seed of the first record")
		samples  = flag.Int("samples", synth.DefaultConfig().Samples, "Samples per record")
		step     = flag.Float64("step", synth.DefaultConfig().Step, "Hours between samples")
		noise    = flag.Float64("noise", synth.DefaultConfig().Noise, "Gaussian noise standard deviation")
	)
	flag.Parse()

	cfg := synth.DefaultConfig()
	cfg.Seed, cfg.Samples, cfg.Step, cfg.Noise = *seed, *samples, *step, *noise

	recs, err := synth.Batch(cfg, *count, *jitter)
	if err != nil {
		os.Stderr.WriteString("generate: " + err.Error() + "\n")
		os.Exit(1)
	}
	names, err := synth.WriteDataset(*dataDir, *truthDir, recs)
	if err != nil {
		os.Stderr.WriteString("write: " + err.Error() + "\n")
		os.Exit(1)
	}
	fmt.Printf("wrote %d records to %s and %s\n", len(names), *dataDir, *truthDir)
}
