package pipeline

import (
	"context"
	"log/slog"

	"cellpeak/internal/conditioning"
	"cellpeak/internal/config"
	"cellpeak/internal/population"
	"cellpeak/pkg/contracts/domain"
)

// Options bundles the parameters of every analysis stage.
type Options struct {
	Conditioning conditioning.Options
	Processor    population.ProcessorConfig
	Summary      population.SummaryOptions
}

// OptionsFromConfig extracts the analysis options from a loaded config.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	cond, err := cfg.ConditionerOptions()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Conditioning: cond,
		Processor:    cfg.ProcessorConfig(),
		Summary:      cfg.SummaryOptions(),
	}, nil
}

// Analysis is the outcome of analyzing one recording.
type Analysis struct {
	Matrix   *domain.TimeSeriesMatrix
	Features *domain.FeaturesTable
	Summary  *domain.PopulationSummary
}

// Analyzer runs condition, peak detection and summary for one frame.
type Analyzer struct {
	conditioner *conditioning.Conditioner
	processor   *population.Processor
	summary     population.SummaryOptions
	logger      *slog.Logger
}

// NewAnalyzer validates the options and builds the stages.
func NewAnalyzer(opts Options, logger *slog.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conditioner, err := conditioning.NewConditioner(opts.Conditioning, logger)
	if err != nil {
		return nil, err
	}
	processor, err := population.NewProcessor(opts.Processor, logger)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		conditioner: conditioner,
		processor:   processor,
		summary:     opts.Summary,
		logger:      logger.With(slog.String("component", "analyzer")),
	}, nil
}

// Analyze processes one frame. name labels the summary.
func (a *Analyzer) Analyze(ctx context.Context, name string, frame *domain.Frame) (*Analysis, error) {
	matrix, err := a.conditioner.Condition(ctx, frame)
	if err != nil {
		return nil, err
	}
	features, err := a.processor.Run(ctx, matrix)
	if err != nil {
		return nil, err
	}
	summary, err := population.Summarize(features, a.summary)
	if err != nil {
		return nil, err
	}
	summary.Name = name

	a.logger.DebugContext(ctx, "recording analyzed",
		slog.String("source", name),
		slog.Int("cells", features.Len()),
		slog.Int("active_cells", summary.TrueCounts[domain.FeatureIsActive]),
	)
	return &Analysis{Matrix: matrix, Features: features, Summary: summary}, nil
}
