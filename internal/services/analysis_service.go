package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	apperrors "cellpeak/internal/errors"
	"cellpeak/internal/infrastructure"
	"cellpeak/internal/ingest"
	"cellpeak/internal/pipeline"
	"cellpeak/pkg/contracts/domain"
)

// Overrides replaces configured analysis settings for one request. Nil
// fields keep the configured value.
type Overrides struct {
	WindowOrder        *int
	Threshold          *float64
	ExcludeZeroNumeric *bool
	TimeUnit           *domain.TimeUnit
	TrimCriteria       *domain.TrimCriteria
}

// AnalysisResult is the response body of an analysis request.
type AnalysisResult struct {
	Source   string                    `json:"source"`
	Rows     int                       `json:"rows"`
	Features []domain.CellActivity     `json:"features"`
	Summary  *domain.PopulationSummary `json:"summary"`
}

// AnalysisService analyzes uploaded recordings.
type AnalysisService struct {
	base    pipeline.Options
	reader  *ingest.Reader
	metrics *infrastructure.AnalysisMetrics
	logger  *slog.Logger
}

// NewAnalysisService creates the service. base is validated once here so a
// bad configuration fails at startup. metrics may be nil.
func NewAnalysisService(base pipeline.Options, metrics *infrastructure.AnalysisMetrics, logger *slog.Logger) (*AnalysisService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := pipeline.NewAnalyzer(base, logger); err != nil {
		return nil, err
	}
	return &AnalysisService{
		base:    base,
		reader:  ingest.NewReader(logger),
		metrics: metrics,
		logger:  infrastructure.WithComponent(logger, "analysis_service"),
	}, nil
}

// Options returns the options a request with the given overrides runs with.
func (s *AnalysisService) Options(o Overrides) pipeline.Options {
	opts := s.base
	if o.WindowOrder != nil {
		opts.Processor.WindowOrder = *o.WindowOrder
	}
	if o.Threshold != nil {
		v := *o.Threshold
		opts.Processor.Threshold = &v
	}
	if o.ExcludeZeroNumeric != nil {
		opts.Summary.ExcludeZeroNumeric = *o.ExcludeZeroNumeric
	}
	if o.TimeUnit != nil {
		opts.Conditioning.TimeUnit = *o.TimeUnit
	}
	if o.TrimCriteria != nil {
		opts.Conditioning.TrimCriteria = *o.TrimCriteria
	}
	return opts
}

// Analyze parses src in the given format ("csv" or "xlsx") and analyzes it.
func (s *AnalysisService) Analyze(ctx context.Context, name string, src io.Reader, format string, o Overrides) (result *AnalysisResult, err error) {
	start := time.Now()
	cells, active := 0, 0
	defer func() {
		s.metrics.RecordInput(ctx, "http", time.Since(start), cells, active, err)
	}()

	analyzer, err := pipeline.NewAnalyzer(s.Options(o), s.logger)
	if err != nil {
		return nil, err
	}

	frame, err := s.reader.Read(ctx, src, format)
	if err != nil {
		return nil, err
	}

	analysis, err := analyzer.Analyze(ctx, name, frame)
	if err != nil {
		return nil, err
	}
	if analysis.Features.Len() == 0 {
		return nil, apperrors.NewEmptyPopulationError()
	}

	cells = analysis.Features.Len()
	active = analysis.Summary.TrueCounts[domain.FeatureIsActive]

	s.logger.InfoContext(ctx, "upload analyzed",
		slog.String("source", name),
		slog.Int("cells", cells),
		slog.Int("active_cells", active),
		slog.Duration("duration", time.Since(start)),
	)
	return &AnalysisResult{
		Source:   name,
		Rows:     analysis.Matrix.Len(),
		Features: analysis.Features.Rows,
		Summary:  analysis.Summary,
	}, nil
}
