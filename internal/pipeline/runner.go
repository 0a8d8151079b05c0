package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"cellpeak/internal/config"
	apperrors "cellpeak/internal/errors"
	"cellpeak/internal/exporter"
	"cellpeak/internal/infrastructure"
	"cellpeak/internal/ingest"
	"cellpeak/internal/validation"
	"cellpeak/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of batch spans.
const TracerName = "cellpeak.pipeline"

// NamedFrame is an in-memory recording.
type NamedFrame struct {
	Source string
	Frame  *domain.Frame
}

// Result is the outcome of one input of a batch.
type Result struct {
	Source string
	// Name is the output name unique within the batch. It labels the
	// summary and prefixes the output files.
	Name         string
	Features     *domain.FeaturesTable
	Summary      *domain.PopulationSummary
	FeaturesPath string
	SummaryPath  string
	Duration     time.Duration
	Err          error
}

// BatchReport describes a finished batch. Results are in input order.
type BatchReport struct {
	RunID          string
	RunDir         string
	ComparisonPath string
	Results        []Result
	Succeeded      int
	Failed         int
}

// Summaries returns the summaries of the successful inputs in input order.
func (b *BatchReport) Summaries() []*domain.PopulationSummary {
	var out []*domain.PopulationSummary
	for _, r := range b.Results {
		if r.Err == nil && r.Summary != nil {
			out = append(out, r.Summary)
		}
	}
	return out
}

// RunnerConfig controls batch execution.
type RunnerConfig struct {
	// Workers bounds the inputs processed at once. Values below 1 mean 1.
	Workers int
	// Format is the per-input table format, "csv" or "xlsx".
	Format string
	// Paths is the output layout. Nil disables writing.
	Paths *config.Paths
}

// Runner processes batches of recordings.
type Runner struct {
	analyzer *Analyzer
	reader   *ingest.Reader
	files    *validation.FileValidator
	exporter *exporter.Exporter
	cfg      RunnerConfig
	metrics  *infrastructure.AnalysisMetrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewRunner creates a batch runner. metrics may be nil.
func NewRunner(analyzer *Analyzer, cfg RunnerConfig, metrics *infrastructure.AnalysisMetrics, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Format == "" {
		cfg.Format = config.DefaultOutputFormat
	}
	return &Runner{
		analyzer: analyzer,
		reader:   ingest.NewReader(logger),
		files:    validation.NewFileValidator(logger),
		exporter: exporter.New(logger),
		cfg:      cfg,
		metrics:  metrics,
		logger:   infrastructure.WithComponent(logger, "pipeline"),
		tracer:   otel.Tracer(TracerName),
	}
}

type input struct {
	source string
	name   string
	load   func(ctx context.Context) (*domain.Frame, error)
}

// ProcessFiles reads and analyzes each file.
func (r *Runner) ProcessFiles(ctx context.Context, paths []string) (*BatchReport, error) {
	inputs := make([]input, len(paths))
	for i, p := range paths {
		inputs[i] = input{
			source: p,
			load: func(ctx context.Context) (*domain.Frame, error) {
				if err := r.files.ValidateInputFile(p); err != nil {
					return nil, err
				}
				return r.reader.ReadFile(ctx, p)
			},
		}
	}
	return r.process(ctx, inputs)
}

// ProcessFrames analyzes recordings that are already in memory.
func (r *Runner) ProcessFrames(ctx context.Context, frames []NamedFrame) (*BatchReport, error) {
	inputs := make([]input, len(frames))
	for i, f := range frames {
		inputs[i] = input{
			source: f.Source,
			load: func(context.Context) (*domain.Frame, error) {
				return f.Frame, nil
			},
		}
	}
	return r.process(ctx, inputs)
}

func (r *Runner) process(ctx context.Context, inputs []input) (*BatchReport, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	report := &BatchReport{
		RunID:   infrastructure.GetTraceID(ctx),
		Results: make([]Result, len(inputs)),
	}

	ctx, span := r.tracer.Start(ctx, "pipeline.batch",
		trace.WithAttributes(
			attribute.String("run_id", report.RunID),
			attribute.Int("inputs", len(inputs)),
		),
	)
	defer span.End()

	if len(inputs) == 0 {
		return nil, apperrors.NewInvalidInputError("no inputs to process", nil)
	}

	if r.cfg.Paths != nil {
		if err := r.cfg.Paths.EnsureDirectories(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, apperrors.NewStorageError("failed to create run directory", err)
		}
		report.RunDir = r.cfg.Paths.RunDir
	}

	sources := make([]string, len(inputs))
	for i, in := range inputs {
		sources[i] = in.source
	}
	for i, name := range r.cfg.Paths.OutputNames(sources, r.cfg.Format) {
		inputs[i].name = name
	}

	r.logger.InfoContext(ctx, "batch started",
		slog.Int("inputs", len(inputs)),
		slog.Int("workers", r.cfg.Workers),
		slog.String("run_dir", report.RunDir),
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, in := range inputs {
		g.Go(func() error {
			report.Results[i] = r.processOne(gctx, in)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range report.Results {
		if res.Err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}

	if r.cfg.Paths != nil && report.Succeeded > 0 {
		path := r.cfg.Paths.ComparisonPath()
		if err := r.exporter.WriteComparison(path, report.Summaries()); err != nil {
			r.logger.ErrorContext(ctx, "failed to write comparison table",
				slog.String("path", path), slog.String("error", err.Error()))
			span.RecordError(err)
			return report, err
		}
		report.ComparisonPath = path
	}

	span.SetAttributes(attribute.Int("succeeded", report.Succeeded), attribute.Int("failed", report.Failed))
	r.logger.InfoContext(ctx, "batch finished",
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", time.Since(start)),
	)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Runner) processOne(ctx context.Context, in input) (res Result) {
	res.Source = in.source
	res.Name = in.name
	start := time.Now()
	cells, active := 0, 0

	defer func() {
		res.Duration = time.Since(start)
		r.metrics.RecordInput(ctx, in.name, res.Duration, cells, active, res.Err)
		if res.Err != nil {
			r.logger.ErrorContext(ctx, "input failed",
				slog.String("source", in.source),
				slog.String("error_type", string(apperrors.TypeOf(res.Err))),
				slog.String("error", res.Err.Error()),
			)
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	frame, err := in.load(ctx)
	if err != nil {
		res.Err = err
		return res
	}

	analysis, err := r.analyzer.Analyze(ctx, in.name, frame)
	if err != nil {
		res.Err = err
		return res
	}
	res.Features = analysis.Features
	res.Summary = analysis.Summary
	cells = analysis.Features.Len()
	active = analysis.Summary.TrueCounts[domain.FeatureIsActive]

	if r.cfg.Paths != nil {
		res.FeaturesPath = r.cfg.Paths.FeaturesPath(in.name, r.cfg.Format)
		if err := r.exporter.WriteFeatures(res.FeaturesPath, res.Features); err != nil {
			res.Err = err
			return res
		}
		res.SummaryPath = r.cfg.Paths.SummaryPath(in.name, r.cfg.Format)
		if err := r.exporter.WriteSummary(res.SummaryPath, res.Summary); err != nil {
			res.Err = err
			return res
		}
	}

	r.logger.InfoContext(ctx, "input processed",
		slog.String("source", filepath.Base(in.source)),
		slog.String("name", in.name),
		slog.Int("cells", cells),
		slog.Int("active_cells", active),
	)
	return res
}
