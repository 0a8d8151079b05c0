package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cellpeak/internal/config"
	"cellpeak/internal/files"
	"cellpeak/internal/infrastructure"
	"cellpeak/internal/pipeline"
	"cellpeak/internal/validation"
	"cellpeak/pkg/contracts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run processes every recording in the input directory and returns the
// process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inDir := fs.String("in", ".", "directory containing .csv and .xlsx recordings")
	pattern := fs.String("pattern", "", "glob selecting which recordings in -in to process")
	outDir := fs.String("out", "", "output directory (overrides output.dir)")
	configPath := fs.String("config", "", "path to a YAML config file")
	format := fs.String("format", "", "output table format, csv or xlsx (overrides output.format)")
	showVersion := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()
	metrics, err := infrastructure.NewAnalysisMetrics(providers.Meter)
	if err != nil {
		logger.Error("Failed to create metrics", slog.String("error", err.Error()))
		return 1
	}

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateInputDirectory(*inDir); err != nil {
		fmt.Fprintf(stderr, "invalid input directory: %v\n", err)
		return 1
	}
	if err := validator.ValidateOutputDirectory(cfg.Output.Dir); err != nil {
		fmt.Fprintf(stderr, "invalid output directory: %v\n", err)
		return 1
	}

	discovery := files.NewDiscovery("")
	var inputs []files.FileInfo
	if *pattern != "" {
		inputs, err = discovery.FindFilesByPattern(*inDir, *pattern)
	} else {
		inputs, err = discovery.FindInputs(*inDir)
	}
	if err != nil {
		logger.Error("Failed to discover inputs", slog.String("input_dir", *inDir), slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "failed to read %s: %v\n", *inDir, err)
		return 1
	}
	logger.Info("Input files discovered", slog.String("input_dir", *inDir), slog.Int("count", len(inputs)))
	fmt.Fprintf(stdout, "Found %d input files\n", len(inputs))
	if len(inputs) == 0 {
		logger.Warn("No input files found", slog.String("input_dir", *inDir))
		return 1
	}

	paths, err := cfg.GetPaths(time.Now())
	if err != nil {
		logger.Error("Failed to resolve output paths", slog.String("error", err.Error()))
		return 1
	}

	opts, err := pipeline.OptionsFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "invalid analysis settings: %v\n", err)
		return 1
	}
	analyzer, err := pipeline.NewAnalyzer(opts, logger)
	if err != nil {
		fmt.Fprintf(stderr, "invalid analysis settings: %v\n", err)
		return 1
	}

	runner := pipeline.NewRunner(analyzer, pipeline.RunnerConfig{
		Workers: cfg.Processing.FileWorkers,
		Format:  cfg.Output.Format,
		Paths:   paths,
	}, metrics, logger)

	report, err := runner.ProcessFiles(ctx, files.Paths(inputs))
	if err != nil {
		logger.Error("Batch failed", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "batch failed: %v\n", err)
		return 1
	}

	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Fprintf(stdout, "FAILED %s: %v\n", res.Source, res.Err)
			continue
		}
		fmt.Fprintf(stdout, "ok     %s -> %s\n", res.Source, res.FeaturesPath)
	}
	fmt.Fprintf(stdout, "Processed %d inputs: %d succeeded, %d failed\n",
		len(report.Results), report.Succeeded, report.Failed)
	if report.ComparisonPath != "" {
		fmt.Fprintf(stdout, "Comparison written to %s\n", report.ComparisonPath)
	}

	if report.Succeeded == 0 {
		return 1
	}
	return 0
}
