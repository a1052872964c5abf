// Command loadtest drives a running welltest service with synthetic records.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/welltest/internal/loadtest"
	"github.com/okian/welltest/pkg/logger"
)

// Default configuration constants.
const (
	defaultRecords     = 200
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		records = flag.Int("records", defaultRecords, "Number of records to generate and submit")
		seed    = flag.Uint64("seed", 1, "Seed of the first record")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		minF1   = flag.Float64("min-f1", 0, "Fail when the mean F1 is below this value")
		format  = flag.String("log-format", "text", "Log format: text or json")
		verbose = flag.Bool("verbose", false, "Log every failed request")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &loadtest.Config{
		BaseURL: *baseURL,
		Records: *records,
		Seed:    *seed,
		Workers: max(1, *workers),
		Timeout: *timeout,
		MinF1:   *minF1,
		Verbose: *verbose,
	}

	if _, err := loadtest.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "load test failed", logger.Error(err))
		os.Exit(1)
	}
}
