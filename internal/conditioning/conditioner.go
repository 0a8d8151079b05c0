package conditioning

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "cellpeak/internal/errors"
	"cellpeak/pkg/contracts/domain"
)

// TracerName is the instrumentation scope of conditioning spans.
const TracerName = "cellpeak.conditioning"

const (
	timeColumnMarker  = "time"
	frameColumnMarker = "frame"
)

// Options controls how a frame is conditioned.
type Options struct {
	TimeUnit     domain.TimeUnit
	TrimCriteria domain.TrimCriteria
	// TrimAmount is a row count for TrimBySamples and a time in TimeUnit
	// for TrimByTime.
	TrimAmount float64
	// Filters are applied in order.
	Filters []domain.ValueFilter
}

// Conditioner converts frames into matrices. It is safe for concurrent use.
type Conditioner struct {
	opts   Options
	logger *slog.Logger
	tracer trace.Tracer
}

// NewConditioner validates opts and returns a Conditioner.
func NewConditioner(opts Options, logger *slog.Logger) (*Conditioner, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if !opts.TimeUnit.IsValid() {
		return nil, apperrors.NewInvalidUnitError(string(opts.TimeUnit), nil)
	}
	if !opts.TrimCriteria.IsValid() {
		return nil, apperrors.NewInvalidCriteriaError(
			fmt.Sprintf("trim criteria must be %q or %q, got %q", domain.TrimBySamples, domain.TrimByTime, opts.TrimCriteria), nil).
			WithContext("criteria", string(opts.TrimCriteria))
	}
	if opts.TrimAmount < 0 || math.IsNaN(opts.TrimAmount) || math.IsInf(opts.TrimAmount, 0) {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("trim amount must be a finite non-negative number, got %v", opts.TrimAmount), nil)
	}
	if opts.TrimCriteria == domain.TrimBySamples && opts.TrimAmount != math.Trunc(opts.TrimAmount) {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("sample trim amount must be a whole number, got %v", opts.TrimAmount), nil)
	}
	for i, f := range opts.Filters {
		if f.Direction != domain.FilterAbove && f.Direction != domain.FilterBelow {
			return nil, apperrors.NewInvalidCriteriaError(
				fmt.Sprintf("filter %d: direction must be %q or %q, got %q", i, domain.FilterAbove, domain.FilterBelow, f.Direction), nil)
		}
		if math.IsNaN(f.Threshold) {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("filter %d: threshold is NaN", i), nil)
		}
	}

	opts.Filters = append([]domain.ValueFilter(nil), opts.Filters...)
	return &Conditioner{
		opts:   opts,
		logger: logger.With(slog.String("component", "conditioner")),
		tracer: otel.Tracer(TracerName),
	}, nil
}

// Options returns a copy of the conditioner's options.
func (c *Conditioner) Options() Options {
	opts := c.opts
	opts.Filters = append([]domain.ValueFilter(nil), c.opts.Filters...)
	return opts
}

// Condition builds a matrix from frame. The frame is not modified.
func (c *Conditioner) Condition(ctx context.Context, frame *domain.Frame) (*domain.TimeSeriesMatrix, error) {
	ctx, span := c.tracer.Start(ctx, "conditioning.condition",
		trace.WithAttributes(
			attribute.String("time_unit", string(c.opts.TimeUnit)),
			attribute.String("trim_criteria", string(c.opts.TrimCriteria)),
			attribute.Float64("trim_amount", c.opts.TrimAmount),
			attribute.Int("filters", len(c.opts.Filters)),
		),
	)
	defer span.End()

	m, err := c.condition(ctx, frame)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.ErrorContext(ctx, "conditioning failed", slog.String("error", err.Error()))
		return nil, err
	}

	span.SetAttributes(attribute.Int("rows", m.Len()), attribute.Int("cells", m.CellCount()))
	return m, nil
}

func (c *Conditioner) condition(ctx context.Context, frame *domain.Frame) (*domain.TimeSeriesMatrix, error) {
	if frame == nil || len(frame.Columns) == 0 {
		return nil, apperrors.NewInvalidInputError("frame has no columns", nil)
	}

	rows := frame.Rows()
	for _, col := range frame.Columns {
		if len(col.Values) != rows {
			return nil, apperrors.NewInvalidInputError(
				fmt.Sprintf("column %q has %d values, expected %d", col.Name, len(col.Values), rows), nil)
		}
	}

	timeIdx := findTimeColumn(frame.Columns)
	if timeIdx < 0 {
		return nil, apperrors.NewMissingTimeColumnError(frame.Names())
	}

	times := make([]time.Time, rows)
	for i, raw := range frame.Columns[timeIdx].Values {
		if math.IsNaN(raw) || math.IsInf(raw, 0) {
			return nil, apperrors.NewInvalidInputError(
				fmt.Sprintf("time column %q has no value at row %d", frame.Columns[timeIdx].Name, i), nil)
		}
		times[i] = c.opts.TimeUnit.Instant(raw)
	}

	var kept []int
	var dropped []string
	for i, col := range frame.Columns {
		if i == timeIdx {
			continue
		}
		if strings.Contains(strings.ToLower(col.Name), frameColumnMarker) {
			dropped = append(dropped, col.Name)
			continue
		}
		kept = append(kept, i)
	}
	if len(dropped) > 0 {
		c.logger.DebugContext(ctx, "dropped frame counter columns", slog.Any("columns", dropped))
	}
	if len(kept) == 0 {
		return nil, apperrors.NewInvalidInputError("frame has no cell columns", nil).
			WithContext("columns", frame.Names())
	}

	start, err := c.trimStart(times)
	if err != nil {
		return nil, err
	}

	cells := make([]string, 0, len(kept))
	values := make(map[string][]float64, len(kept))
	for _, i := range kept {
		col := frame.Columns[i]
		if _, dup := values[col.Name]; dup {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("duplicate cell column %q", col.Name), nil)
		}
		cells = append(cells, col.Name)
		values[col.Name] = c.applyFilters(ctx, col.Name, col.Values[start:])
	}

	m, err := domain.NewTimeSeriesMatrix(c.opts.TimeUnit, times[start:], cells, values)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("conditioned data is not a valid time series", err)
	}

	c.logger.InfoContext(ctx, "frame conditioned",
		slog.Int("rows", m.Len()),
		slog.Int("cells", m.CellCount()),
		slog.Int("dropped_rows", start),
		slog.String("time_column", frame.Columns[timeIdx].Name),
	)
	return m, nil
}

// trimStart returns the index of the first row kept after the warm-up trim.
func (c *Conditioner) trimStart(times []time.Time) (int, error) {
	switch c.opts.TrimCriteria {
	case domain.TrimBySamples:
		n := int(c.opts.TrimAmount)
		if n >= len(times) {
			return 0, apperrors.NewInvalidInputError(
				fmt.Sprintf("trimming %d samples leaves no rows out of %d", n, len(times)), nil)
		}
		return n, nil
	default:
		cutoff := c.opts.TimeUnit.Instant(c.opts.TrimAmount)
		for i, t := range times {
			if !t.Before(cutoff) {
				return i, nil
			}
		}
		return 0, apperrors.NewInvalidInputError(
			fmt.Sprintf("no rows at or after %s", cutoff.Format(time.RFC3339Nano)), nil)
	}
}

func (c *Conditioner) applyFilters(ctx context.Context, name string, src []float64) []float64 {
	out := append([]float64(nil), src...)
	for _, f := range c.opts.Filters {
		cleared := 0
		for i, v := range out {
			if !math.IsNaN(v) && f.Excludes(v) {
				out[i] = math.NaN()
				cleared++
			}
		}
		if cleared > 0 {
			c.logger.DebugContext(ctx, "filter cleared samples",
				slog.String("cell", name),
				slog.String("filter", f.String()),
				slog.Int("cleared", cleared),
			)
		}
	}
	return out
}

func findTimeColumn(columns []domain.FrameColumn) int {
	for i, col := range columns {
		if strings.Contains(strings.ToLower(col.Name), timeColumnMarker) {
			return i
		}
	}
	return -1
}
