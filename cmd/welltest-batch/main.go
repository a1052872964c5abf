// Command welltest-batch analyses a directory of records against their
// annotations, prints per-class F1 and the worst files, and optionally writes
// the submission CSV or runs a parameter grid search.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/okian/welltest/internal/adapters/export"
	"github.com/okian/welltest/internal/adapters/ingest"
	app "github.com/okian/welltest/internal/app"
	"github.com/okian/welltest/internal/config"
	"github.com/okian/welltest/internal/search"
	"github.com/okian/welltest/pkg/logger"
)

const (
	defaultWorst       = 5
	outputPermission   = 0o644
	directoryPermission = 0o750
)

// options are the command line settings layered over config.Load.
type options struct {
	dataDir  string
	truthDir string
	worst    int
	export   string
	grid     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.dataDir, "data", "", "Directory of record CSVs (default from config)")
	flag.StringVar(&opts.truthDir, "truth", "", "Directory of annotation CSVs (default from config)")
	flag.IntVar(&opts.worst, "worst", defaultWorst, "Number of worst files to print")
	flag.StringVar(&opts.export, "export", "", "Write the submission CSV to this path")
	flag.BoolVar(&opts.grid, "grid", false, "Run the parameter grid search after the analysis")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	// Progress goes to stderr; the report owns stdout.
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, opts, os.Stdout); err != nil {
		logger.Get().Error(ctx, "batch failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, out io.Writer) error {
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	if opts.truthDir != "" {
		cfg.TruthDir = opts.truthDir
	}
	src := ingest.DirSource{DataDir: cfg.DataDir, TruthDir: cfg.TruthDir}
	log := logger.Named("batch")

	svc := app.New(
		app.WithLogger(log),
		app.WithParams(cfg.Detection),
		app.WithScoring(cfg.Scoring.Options()...),
		app.WithSource(src),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
	)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	report, err := svc.AnalyzeDir(ctx)
	if err != nil {
		return fmt.Errorf("analyse %s: %w", cfg.DataDir, err)
	}

	fmt.Fprintf(out, "files: %d analysed: %d failed: %d\n", report.Files, report.Analyzed, len(report.Failures))
	for _, f := range report.Failures {
		fmt.Fprintf(out, "  failed %s: %s\n", f.File, f.Err)
	}
	avg := report.Averages
	fmt.Fprintf(out, "scored: %d\n", avg.Scored)
	fmt.Fprintf(out, "average F1 recovery: %.4f\n", avg.Recovery)
	fmt.Fprintf(out, "average F1 drop:     %.4f\n", avg.Drawdown)
	fmt.Fprintf(out, "average F1 mean:     %.4f\n", avg.Mean)

	if opts.worst > 0 && avg.Scored > 0 {
		worst, err := svc.Worst(ctx, opts.worst)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nworst %d:\n", len(worst))
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "file\tf1_recovery\tf1_drop\tmean")
		for _, a := range worst {
			fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\n", a.File, a.F1Recovery, a.F1Drawdown, a.MeanF1())
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if opts.export != "" {
		if err := writeSubmission(opts.export, svc); err != nil {
			return err
		}
		log.Info(ctx, "submission written", logger.String("path", opts.export))
	}

	if opts.grid {
		return runGrid(ctx, cfg, src, out)
	}
	return nil
}

func writeSubmission(path string, svc *app.Service) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputPermission)
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	if err := export.WriteSubmission(f, svc.Results(context.Background())); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// runGrid loads every annotated record and searches the default grid around
// the configured parameters.
func runGrid(ctx context.Context, cfg *config.Config, src ingest.DirSource, out io.Writer) error {
	names, err := src.List()
	if err != nil {
		return err
	}
	data := make([]search.Sample, 0, len(names))
	for _, name := range names {
		in, err := src.Load(name)
		if err != nil {
			return err
		}
		if in.Truth == nil {
			continue
		}
		data = append(data, search.Sample{Name: name, Series: in.Series, Truth: *in.Truth})
	}

	outcome, err := search.Run(ctx, cfg.Detection, search.DefaultGrid(), data,
		search.WithConcurrency(cfg.WorkerCount),
		search.WithScoring(cfg.Scoring.Options()...))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\ngrid search over %d records:\n", len(data))
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "window\tthreshold\tnoise\tf1_recovery\tf1_drop\tmean\tfailed")
	for _, t := range outcome.Trials {
		if t.Err != "" {
			fmt.Fprintf(tw, "%d\t%g\t%g\t-\t-\t-\t%s\n", t.Params.WindowSize, t.Params.Threshold, t.Params.NoiseThreshold, t.Err)
			continue
		}
		fmt.Fprintf(tw, "%d\t%g\t%g\t%.4f\t%.4f\t%.4f\t%d\n",
			t.Params.WindowSize, t.Params.Threshold, t.Params.NoiseThreshold,
			t.F1Recovery, t.F1Drawdown, t.Mean, t.Failed)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	b := outcome.Best
	fmt.Fprintf(out, "best: window_size=%d threshold=%g noise_threshold=%g mean F1=%.4f\n",
		b.Params.WindowSize, b.Params.Threshold, b.Params.NoiseThreshold, b.Mean)
	return nil
}
