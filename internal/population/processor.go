package population

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"cellpeak/internal/activity"
	apperrors "cellpeak/internal/errors"
	"cellpeak/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of population spans.
const TracerName = "cellpeak.population"

// ProcessorConfig holds the peak detection parameters of a run.
type ProcessorConfig struct {
	// WindowOrder is the number of neighbours on each side a peak must beat.
	WindowOrder int `validate:"min=1"`
	// Threshold is the minimum peak value. Nil uses each cell's mean.
	Threshold *float64
	// Workers bounds the per-cell fan-out. Zero means runtime.NumCPU().
	Workers int `validate:"min=0"`
}

var validate = validator.New()

// Processor computes features tables for conditioned matrices.
type Processor struct {
	detector activity.Detector
	workers  int
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewProcessor validates cfg and returns a Processor.
func NewProcessor(cfg ProcessorConfig, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, apperrors.NewInvalidInputError("invalid processor configuration", err)
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	var threshold *float64
	if cfg.Threshold != nil {
		v := *cfg.Threshold
		threshold = &v
	}

	return &Processor{
		detector: activity.Detector{Order: cfg.WindowOrder, Threshold: threshold},
		workers:  workers,
		logger:   logger.With(slog.String("component", "population_processor")),
		tracer:   otel.Tracer(TracerName),
	}, nil
}

// Run detects peaks in every cell of m and returns one row per cell, sorted
// by cell identifier. Any failure aborts the whole run.
func (p *Processor) Run(ctx context.Context, m *domain.TimeSeriesMatrix) (*domain.FeaturesTable, error) {
	ctx, span := p.tracer.Start(ctx, "population.run",
		trace.WithAttributes(
			attribute.Int("window_order", p.detector.Order),
			attribute.Bool("threshold_set", p.detector.Threshold != nil),
		),
	)
	defer span.End()

	start := time.Now()
	table, err := p.run(ctx, m)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.ErrorContext(ctx, "population run failed", slog.String("error", err.Error()))
		return nil, err
	}

	active := 0
	for _, row := range table.Rows {
		if row.IsActive {
			active++
		}
	}
	span.SetAttributes(attribute.Int("cells", table.Len()), attribute.Int("active_cells", active))
	p.logger.InfoContext(ctx, "population processed",
		slog.Int("cells", table.Len()),
		slog.Int("active_cells", active),
		slog.Int("rows", m.Len()),
		slog.Duration("duration", time.Since(start)),
	)
	return table, nil
}

func (p *Processor) run(ctx context.Context, m *domain.TimeSeriesMatrix) (*domain.FeaturesTable, error) {
	if err := m.Validate(); err != nil {
		return nil, apperrors.NewInvalidInputError("matrix is not a valid time series", err)
	}

	rows := make([]domain.CellActivity, len(m.Cells))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, id := range m.Cells {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			col, _ := m.Column(id)
			peaks, err := p.detector.Detect(m.Times, col)
			if err != nil {
				return fmt.Errorf("cell %q: %w", id, err)
			}
			rows[i] = activity.Extract(id, peaks)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(rows, func(a, b int) bool { return rows[a].CellID < rows[b].CellID })
	return &domain.FeaturesTable{Rows: rows}, nil
}
